// Package openai реализует llm.Provider для OpenAI-совместимых chat completion API.
//
// Работает поверх github.com/sashabaranov/go-openai; HTTP клиент (таймаут,
// TLS, клиентский сертификат) приходит снаружи из pkg/transport.
package openai

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ilkoid/poncho-chat/pkg/llm"
	"github.com/ilkoid/poncho-chat/pkg/tokens"
	"github.com/ilkoid/poncho-chat/pkg/tools"
	"github.com/ilkoid/poncho-chat/pkg/utils"
)

// Options — параметры подключения к endpoint.
type Options struct {
	BaseURL    string // например http://127.0.0.1:8000/v1
	APIKey     string // bearer token
	Model      string
	HTTPClient *http.Client
}

// Client реализует интерфейс llm.Provider.
type Client struct {
	api      *openai.Client
	model    string
	endpoint string
}

var _ llm.Provider = (*Client)(nil)

// NewClient создает клиент. Сетевых запросов не выполняет.
func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	return &Client{
		api:      openai.NewClientWithConfig(cfg),
		model:    opts.Model,
		endpoint: cfg.BaseURL,
	}
}

// Complete отправляет диалог и возвращает первый выбор ответа.
//
// Определения инструментов (и tool_choice=auto) передаются только когда
// defs не пустой, иначе поле tools в запросе отсутствует.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, defs []tools.ToolDefinition, params llm.GenerationParams) (llm.CompletionReply, error) {
	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         mapMessages(messages),
		Temperature:      temperature(params.Temperature),
		MaxTokens:        params.MaxTokens,
		TopP:             float32(params.TopP),
		FrequencyPenalty: float32(params.FrequencyPenalty),
		PresencePenalty:  float32(params.PresencePenalty),
	}

	if len(defs) > 0 {
		req.Tools = convertToolsToOpenAI(defs)
		req.ToolChoice = "auto"
	}

	if estimate, err := tokens.Estimate(c.model, messages, toolNames(defs)...); err == nil {
		utils.Debug("LLM request started",
			"model", c.model,
			"messages_count", len(messages),
			"tools_count", len(defs),
			"estimated_tokens", estimate)
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"endpoint", c.endpoint,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.CompletionReply{}, c.classify(err)
	}

	if len(resp.Choices) == 0 {
		return llm.CompletionReply{}, llm.ErrEmptyReply
	}

	choice := resp.Choices[0].Message
	reply := llm.CompletionReply{Content: choice.Content}

	if len(choice.ToolCalls) > 0 {
		reply.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			reply.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}

	utils.Info("LLM response received",
		"model", c.model,
		"tool_calls_count", len(reply.ToolCalls),
		"content_length", len(reply.Content),
		"prompt_tokens", resp.Usage.PromptTokens,
		"duration_ms", time.Since(startTime).Milliseconds())

	return reply, nil
}

// classify разделяет ответы endpoint с HTTP статусом и транспортные ошибки.
func (c *Client) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &llm.CompletionError{Endpoint: c.endpoint, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.CompletionError{Endpoint: c.endpoint, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	return &llm.ConnectionError{Endpoint: c.endpoint, Err: err}
}

// temperature: в go-openai v1.41 поле ChatCompletionRequest.Temperature
// помечено `json:"temperature,omitempty"` и нулевое значение не уходит в запрос.
// Поэтому явный 0 передаётся как минимальное положительное float32 (~1e-45).
func temperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func mapMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			})
		}
		out[i] = msg
	}
	return out
}

// convertToolsToOpenAI конвертирует определения инструментов в формат
// OpenAI Function Calling. Parameters уже JSON Schema и передаются как есть.
func convertToolsToOpenAI(defs []tools.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))

	for i, def := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Strict:      def.Strict,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}

func toolNames(defs []tools.ToolDefinition) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}
