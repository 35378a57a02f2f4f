// Package agent предоставляет простой API для одного вызова poncho-chat.
//
// Пакет является фасадом: загружает конфигурацию, собирает транспорт,
// OpenAI клиент и инструменты, затем передаёт управление оркестратору.
//
// Basic usage:
//
//	client, err := agent.New(agent.Config{ConfigPath: "chat.yaml"})
//	if err != nil { ... }
//	result, err := client.Run(ctx)
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	internal "github.com/ilkoid/poncho-chat/internal/agent"
	"github.com/ilkoid/poncho-chat/pkg/config"
	"github.com/ilkoid/poncho-chat/pkg/llm"
	"github.com/ilkoid/poncho-chat/pkg/llm/openai"
	"github.com/ilkoid/poncho-chat/pkg/tools"
	"github.com/ilkoid/poncho-chat/pkg/tools/std"
	"github.com/ilkoid/poncho-chat/pkg/transport"
	"github.com/ilkoid/poncho-chat/pkg/utils"
)

// Result — результат успешного вызова.
type Result = internal.Result

// Error — терминальная ошибка вызова (этап и endpoint).
type Error = internal.Error

// Stage — этап, на котором вызов завершился ошибкой.
type Stage = internal.Stage

// Этапы вызова.
const (
	StageToolLoad           = internal.StageToolLoad
	StageFirstCompletion    = internal.StageFirstCompletion
	StageToolDispatch       = internal.StageToolDispatch
	StageFollowupCompletion = internal.StageFollowupCompletion
)

// Config определяет, откуда брать параметры вызова.
type Config struct {
	// ConfigPath — путь к YAML. Пустой — только дефолты и Overrides.
	ConfigPath string

	// EnvFiles — .env файлы для подстановки ${VAR} в YAML.
	EnvFiles []string

	// Overrides применяется после чтения файла (флаги CLI).
	Overrides func(*config.AppConfig)

	// Provider подменяет OpenAI клиент (тесты, другие адаптеры).
	Provider llm.Provider

	// Catalog подменяет каталог встроенных инструментов.
	Catalog *tools.Catalog
}

// Client описывает один подготовленный вызов.
type Client struct {
	cfg          *config.AppConfig
	orchestrator *internal.Orchestrator
	notices      *tools.Notices
	invocationID string
}

// New загружает конфигурацию и инструменты.
//
// Ошибка загрузки инструмента возвращается до любых сетевых запросов
// к endpoint как *Error с этапом StageToolLoad; errors.Is(err, tools.ErrLoad)
// остаётся истинным.
func New(cfg Config) (*Client, error) {
	var opts []config.LoadOption
	if len(cfg.EnvFiles) > 0 {
		opts = append(opts, config.WithEnvFiles(cfg.EnvFiles...))
	}
	if cfg.Overrides != nil {
		opts = append(opts, config.WithOverrides(cfg.Overrides))
	}

	appCfg, err := config.Load(cfg.ConfigPath, opts...)
	if err != nil {
		return nil, err
	}

	invocationID := uuid.NewString()
	notices := &tools.Notices{}

	locators, err := appCfg.ToolLocators()
	if err != nil {
		return nil, err
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = std.NewCatalog()
	}

	registry, err := catalog.Load(locators, appCfg.Tools, notices)
	if err != nil {
		utils.Error("Tool loading failed", "invocation_id", invocationID, "error", err)
		return nil, &Error{Stage: StageToolLoad, Endpoint: appCfg.EndpointURL, Err: err}
	}

	provider := cfg.Provider
	if provider == nil {
		provider = openai.NewClient(openai.Options{
			BaseURL:    appCfg.EndpointURL,
			APIKey:     appCfg.APIKey,
			Model:      appCfg.ModelName,
			HTTPClient: transport.NewHTTPClient(TransportOptions(appCfg)),
		})
	}

	orchestrator, err := internal.New(internal.Config{
		LLM:                  provider,
		Registry:             registry,
		Endpoint:             appCfg.EndpointURL,
		IncludeAssistantTurn: appCfg.App.IncludeAssistantTurn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	utils.Info("Invocation prepared",
		"invocation_id", invocationID,
		"endpoint", appCfg.EndpointURL,
		"model", appCfg.ModelName,
		"tools", registry.Len())

	return &Client{
		cfg:          appCfg,
		orchestrator: orchestrator,
		notices:      notices,
		invocationID: invocationID,
	}, nil
}

// Run выполняет вызов.
func (c *Client) Run(ctx context.Context) (Result, error) {
	return c.orchestrator.Run(ctx, c.request())
}

// Check возвращает начальный диалог без обращения к endpoint.
func (c *Client) Check() Result {
	return c.orchestrator.Check(c.request())
}

func (c *Client) request() internal.Request {
	return internal.Request{
		UserContent:   c.cfg.UserContent,
		SystemContent: c.cfg.SystemContent,
		Params:        GenerationParams(c.cfg),
		InvocationID:  c.invocationID,
		Notices:       c.notices,
	}
}

// Config возвращает итоговую конфигурацию вызова.
func (c *Client) Config() *config.AppConfig {
	return c.cfg
}

// InvocationID возвращает идентификатор вызова.
func (c *Client) InvocationID() string {
	return c.invocationID
}

// TransportOptions строит настройки HTTP клиента из конфигурации.
func TransportOptions(cfg *config.AppConfig) transport.Options {
	return transport.Options{
		Timeout: cfg.TimeoutDuration(),
		TLS: transport.NewTLSConfig(
			cfg.TLSInsecure,
			cfg.TLSClientCert,
			cfg.TLSClientKey,
			cfg.TLSClientPasswd,
		),
		Tracing: cfg.App.Trace,
	}
}

// GenerationParams переносит параметры генерации из конфигурации.
func GenerationParams(cfg *config.AppConfig) llm.GenerationParams {
	return llm.NewGenerationParams(
		llm.WithTemperature(cfg.Temperature),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithTopP(cfg.TopP),
		llm.WithPenalties(cfg.FrequencyPenalty, cfg.PresencePenalty),
	)
}
