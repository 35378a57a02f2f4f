// Package agent реализует оркестрацию одного вызова chat completion с инструментами.
//
// Машина состояний:
//
//	Idle → AwaitingFirstReply → Done
//	                          → DispatchingTools → AwaitingFollowupReply → Done
//
// Failed достижим из любого сетевого состояния и из DispatchingTools.
// Follow-up раунд ровно один: его ответ финальный, даже если модель
// снова запросила инструменты.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ilkoid/poncho-chat/pkg/conversation"
	"github.com/ilkoid/poncho-chat/pkg/llm"
	"github.com/ilkoid/poncho-chat/pkg/tools"
	"github.com/ilkoid/poncho-chat/pkg/utils"
)

const tracerName = "github.com/ilkoid/poncho-chat/internal/agent"

// Config конфигурация для создания Orchestrator.
type Config struct {
	// LLM — провайдер языковой модели (обязательный)
	LLM llm.Provider

	// Registry — загруженные инструменты (обязательный, может быть пустым)
	Registry *tools.Registry

	// Endpoint — адрес для сообщений об ошибках
	Endpoint string

	// IncludeAssistantTurn добавляет assistant-сообщение с tool calls
	// перед результатами инструментов.
	IncludeAssistantTurn bool

	// OnTransition вызывается на каждом переходе машины состояний.
	OnTransition func(from, to State)
}

// Request — входные данные одного вызова.
type Request struct {
	UserContent   string
	SystemContent string
	Params        llm.GenerationParams

	// InvocationID пустой — генерируется новый UUID.
	InvocationID string

	// Notices — куда складывать операторские уведомления.
	// nil — создаётся новый сборщик на вызов.
	Notices *tools.Notices
}

// Result — результат успешного вызова.
type Result struct {
	Changed          bool          `json:"changed"`
	OriginalMessages []llm.Message `json:"original_messages"`
	Response         string        `json:"response"`
	Warnings         []string      `json:"warnings"`
	InvocationID     string        `json:"invocation_id"`
}

// Orchestrator выполняет вызовы. Состояние вызова живёт в Run,
// поэтому один Orchestrator можно использовать повторно.
type Orchestrator struct {
	llm                  llm.Provider
	registry             *tools.Registry
	endpoint             string
	includeAssistantTurn bool
	onTransition         func(from, to State)
}

// New создаёт Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("cfg.LLM is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("cfg.Registry is required")
	}

	return &Orchestrator{
		llm:                  cfg.LLM,
		registry:             cfg.Registry,
		endpoint:             cfg.Endpoint,
		includeAssistantTurn: cfg.IncludeAssistantTurn,
		onTransition:         cfg.OnTransition,
	}, nil
}

// run — состояние одного вызова.
type run struct {
	o       *Orchestrator
	id      string
	state   State
	notices *tools.Notices
}

func (r *run) transition(to State) {
	from := r.state
	r.state = to
	utils.Debug("Orchestrator transition", "invocation_id", r.id, "from", from.String(), "to", to.String())
	if r.o.onTransition != nil {
		r.o.onTransition(from, to)
	}
}

func (r *run) fail(stage Stage, err error) error {
	r.transition(StateFailed)
	utils.Error("Invocation failed", "invocation_id", r.id, "stage", string(stage), "error", err)
	return &Error{Stage: stage, Endpoint: r.o.endpoint, Err: err}
}

// Run выполняет вызов. При ошибке частичный результат не возвращается.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	r := &run{o: o, id: req.InvocationID, state: StateIdle, notices: req.Notices}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	if r.notices == nil {
		r.notices = &tools.Notices{}
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "orchestrator.run")
	defer span.End()
	span.SetAttributes(attribute.String("invocation.id", r.id))

	startTime := time.Now()
	utils.Info("Invocation started", "invocation_id", r.id, "endpoint", o.endpoint, "tools", o.registry.Len())

	defs := o.registry.Definitions()
	initial := conversation.BuildInitial(req.UserContent, req.SystemContent, o.registry.Addenda())

	r.transition(StateAwaitingFirstReply)
	reply, err := o.complete(ctx, "completion.first", initial, defs, req.Params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, r.fail(StageFirstCompletion, err)
	}

	if !reply.HasToolCalls() {
		r.transition(StateDone)
		return r.result(initial, reply.Content, startTime), nil
	}

	r.transition(StateDispatchingTools)
	conv := initial
	if o.includeAssistantTurn {
		conv = conversation.AppendAssistant(conv, reply)
	}
	conv, err = r.dispatch(ctx, conv, reply.ToolCalls)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, r.fail(StageToolDispatch, err)
	}

	r.transition(StateAwaitingFollowupReply)
	final, err := o.complete(ctx, "completion.followup", conv, defs, req.Params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, r.fail(StageFollowupCompletion, err)
	}

	if final.HasToolCalls() {
		r.notices.Notify("Follow-up reply requested %d more tool call(s); they were not executed", len(final.ToolCalls))
	}

	r.transition(StateDone)
	return r.result(initial, final.Content, startTime), nil
}

// Check собирает начальный диалог без сетевых запросов (режим проверки).
// Changed всегда false.
func (o *Orchestrator) Check(req Request) Result {
	id := req.InvocationID
	if id == "" {
		id = uuid.NewString()
	}
	notices := req.Notices
	if notices == nil {
		notices = &tools.Notices{}
	}

	initial := conversation.BuildInitial(req.UserContent, req.SystemContent, o.registry.Addenda())
	utils.Info("Check mode, completion skipped", "invocation_id", id, "messages", initial.Len())

	return Result{
		Changed:          false,
		OriginalMessages: initial.Messages(),
		Warnings:         notices.Items(),
		InvocationID:     id,
	}
}

func (o *Orchestrator) complete(ctx context.Context, spanName string, conv conversation.Conversation, defs []tools.ToolDefinition, params llm.GenerationParams) (llm.CompletionReply, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(
		attribute.Int("messages.count", conv.Len()),
		attribute.Int("tools.count", len(defs)),
	)

	reply, err := o.llm.Complete(ctx, conv.Messages(), defs, params)
	if err != nil {
		span.RecordError(err)
		return llm.CompletionReply{}, err
	}
	span.SetAttributes(attribute.Int("reply.tool_calls", len(reply.ToolCalls)))
	return reply, nil
}

// dispatch выполняет tool calls последовательно в порядке получения.
// Первая ошибка останавливает пакет.
func (r *run) dispatch(ctx context.Context, conv conversation.Conversation, calls []llm.ToolCall) (conversation.Conversation, error) {
	for _, tc := range calls {
		capability, ok := r.o.registry.Find(tc.Name)
		if !ok {
			return conv, &tools.UnknownToolError{Name: tc.Name}
		}

		args, err := decodeArgs(tc.Args)
		if err != nil {
			return conv, &tools.ToolExecutionError{Name: tc.Name, CallID: tc.ID, Err: err}
		}

		result, err := r.invoke(ctx, capability, tc, args)
		if err != nil {
			return conv, &tools.ToolExecutionError{Name: tc.Name, CallID: tc.ID, Err: err}
		}

		conv = conversation.AppendToolResult(conv, tc.ID, conversation.FormatResult(result))
	}
	return conv, nil
}

func (r *run) invoke(ctx context.Context, capability tools.Capability, tc llm.ToolCall, args map[string]any) (any, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tool."+tc.Name)
	defer span.End()
	span.SetAttributes(attribute.String("tool.call_id", tc.ID))

	startTime := time.Now()
	result, err := capability.Invoke(ctx, args, r.notices)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	utils.Info("Tool executed",
		"invocation_id", r.id,
		"tool", tc.Name,
		"call_id", tc.ID,
		"success", err == nil,
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, err
}

func (r *run) result(initial conversation.Conversation, response string, startTime time.Time) Result {
	utils.Info("Invocation completed",
		"invocation_id", r.id,
		"response_length", len(response),
		"duration_ms", time.Since(startTime).Milliseconds())

	return Result{
		Changed:          true,
		OriginalMessages: initial.Messages(),
		Response:         response,
		Warnings:         r.notices.Items(),
		InvocationID:     r.id,
	}
}

// decodeArgs разбирает JSON аргументы tool call. Markdown-обёртка
// вокруг JSON, которую иногда добавляют модели, снимается.
func decodeArgs(raw string) (map[string]any, error) {
	cleaned := utils.CleanJsonBlock(raw)
	if cleaned == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(cleaned), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments %s: %w", utils.Truncate(raw, 200), err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
