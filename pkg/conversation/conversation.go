// Package conversation строит упорядоченный диалог одного вызова.
//
// Conversation неизменяема: каждая операция добавления возвращает новое
// значение, ранее выданные срезы сообщений не меняются.
package conversation

import (
	"strings"

	"github.com/ilkoid/poncho-chat/pkg/llm"
)

// Conversation — упорядоченная последовательность сообщений.
type Conversation struct {
	messages []llm.Message
}

// Messages возвращает копию сообщений.
func (c Conversation) Messages() []llm.Message {
	return cloneMessages(c.messages)
}

// Len возвращает число сообщений.
func (c Conversation) Len() int {
	return len(c.messages)
}

func (c Conversation) append(m llm.Message) Conversation {
	next := make([]llm.Message, len(c.messages), len(c.messages)+1)
	copy(next, c.messages)
	return Conversation{messages: append(next, m)}
}

// BuildInitial собирает [system?, user].
//
// System сообщение = trim(system) и prompt addenda инструментов в порядке
// загрузки (Registry.Addenda), через один пробел. Пустые части пропускаются;
// если в итоге текста нет, system сообщение не добавляется.
func BuildInitial(user, system string, addenda []string) Conversation {
	parts := make([]string, 0, len(addenda)+1)
	if s := strings.TrimSpace(system); s != "" {
		parts = append(parts, s)
	}
	for _, a := range addenda {
		if a = strings.TrimSpace(a); a != "" {
			parts = append(parts, a)
		}
	}

	var conv Conversation
	if systemText := strings.Join(parts, " "); systemText != "" {
		conv = conv.append(llm.Message{Role: llm.RoleSystem, Content: systemText})
	}
	return conv.append(llm.Message{Role: llm.RoleUser, Content: user})
}

// AppendToolResult добавляет tool-сообщение с результатом вызова toolCallID.
// Вызывать в порядке, в котором модель прислала tool calls.
func AppendToolResult(conv Conversation, toolCallID, resultText string) Conversation {
	return conv.append(llm.Message{
		Role:       llm.RoleTool,
		Content:    resultText,
		ToolCallID: toolCallID,
	})
}

// AppendAssistant добавляет assistant-сообщение с запрошенными tool calls.
// Строгие OpenAI-серверы требуют его перед tool-сообщениями.
func AppendAssistant(conv Conversation, reply llm.CompletionReply) Conversation {
	calls := make([]llm.ToolCall, len(reply.ToolCalls))
	copy(calls, reply.ToolCalls)
	return conv.append(llm.Message{
		Role:      llm.RoleAssistant,
		Content:   reply.Content,
		ToolCalls: calls,
	})
}

func cloneMessages(in []llm.Message) []llm.Message {
	out := make([]llm.Message, len(in))
	for i, m := range in {
		out[i] = m
		if m.ToolCalls != nil {
			out[i].ToolCalls = append([]llm.ToolCall(nil), m.ToolCalls...)
		}
	}
	return out
}
