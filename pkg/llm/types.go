// Базовые типы - определяем универсальный язык общения с моделями
package llm

// Role — роль автора сообщения в диалоге.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message — одно сообщение диалога.
//
// ToolCallID заполняется только для RoleTool, ToolCalls только для RoleAssistant.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall — запрос модели на вызов инструмента.
// Args — сырая JSON строка аргументов в том виде, в котором её прислала модель.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"arguments"`
}

// CompletionReply — первый выбор ответа модели.
type CompletionReply struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls сообщает, запросила ли модель вызов инструментов.
func (r CompletionReply) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
