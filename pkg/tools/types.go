// Интерфейс Capability и структуры определений инструментов.

package tools

import "context"

// JSONSchema представляет JSON Schema для параметров инструмента.
type JSONSchema map[string]any

// ToolDefinition описывает инструмент для LLM (Function Calling API format).
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
	Strict      bool       `json:"strict"`
}

// Notifier принимает операторские уведомления от инструментов.
//
// Уведомления видны оператору и попадают в вывод как warnings,
// но не влияют на ход выполнения.
type Notifier interface {
	Notify(format string, args ...any)
}

// Capability — контракт, который должен реализовать любой инструмент.
type Capability interface {
	// Definition возвращает описание инструмента для LLM.
	Definition() ToolDefinition

	// PromptAddendum — текст, добавляемый в system message.
	// Пустая строка означает "без добавки".
	PromptAddendum() string

	// Invoke выполняет инструмент с уже разобранными аргументами.
	// Результат сериализуется в текст вызывающей стороной.
	Invoke(ctx context.Context, args map[string]any, notices Notifier) (any, error)
}
