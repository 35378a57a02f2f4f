package std

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/ilkoid/poncho-chat/pkg/config"
	"github.com/ilkoid/poncho-chat/pkg/tools"
	"github.com/ilkoid/poncho-chat/pkg/transport"
)

// LogSearchToolName — имя инструмента в Function Calling.
const LogSearchToolName = "count_log_entries"

// LogSearchTool считает записи логов для машины в индексе Elasticsearch.
type LogSearchTool struct {
	es    *elasticsearch.Client
	index string
}

var _ tools.Capability = (*LogSearchTool)(nil)

// NewLogSearchTool создаёт инструмент count_log_entries.
// URL и API ключ приходят из секции tools.log_search.
func NewLogSearchTool(cfg config.LogSearchConfig) (*LogSearchTool, error) {
	cfg = cfg.GetDefaults()
	if cfg.URL == "" {
		return nil, fmt.Errorf("tools.log_search.url is required")
	}

	httpClient := transport.NewHTTPClient(transport.Options{
		Timeout: 30 * time.Second,
		TLS:     transport.NewTLSConfig(cfg.TLSInsecure, "", "", ""),
	})

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		APIKey:    cfg.APIKey,
		Transport: httpClient.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &LogSearchTool{es: es, index: cfg.Index}, nil
}

// Definition возвращает определение инструмента для function calling.
func (t *LogSearchTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        LogSearchToolName,
		Description: "Counts the number of log entries that exist for the specified machine name.",
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"machine_name": map[string]any{"type": "string"},
			},
			"required":             []string{"machine_name"},
			"additionalProperties": false,
		},
		Strict: true,
	}
}

// PromptAddendum подсказывает модели использовать инструмент для подсчёта логов.
func (t *LogSearchTool) PromptAddendum() string {
	return "Always use the " + LogSearchToolName + " tool to get the number of log entries that exist for a given machine name."
}

// Invoke выполняет _count по индексу с query string = machine_name.
func (t *LogSearchTool) Invoke(ctx context.Context, args map[string]any, notices tools.Notifier) (any, error) {
	machine, err := stringArg(args, "machine_name", true)
	if err != nil {
		return nil, err
	}

	res, err := t.es.Count(
		t.es.Count.WithContext(ctx),
		t.es.Count.WithIndex(t.index),
		t.es.Count.WithQuery(machine),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch count: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch count: %s", res.String())
	}

	var payload struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode count response: %w", err)
	}

	notices.Notify("Tool %s for arguments %v == %d", LogSearchToolName, args, payload.Count)

	return payload.Count, nil
}
