// Интерфейс Провайдера через который работает оркестратор.

package llm

import (
	"context"

	"github.com/ilkoid/poncho-chat/pkg/tools"
)

// Provider — абстракция над OpenAI-совместимым chat completion API.
type Provider interface {
	// Complete отправляет диалог и возвращает первый выбор ответа.
	// defs пустой — поле tools в запрос не попадает.
	Complete(ctx context.Context, messages []Message, defs []tools.ToolDefinition, params GenerationParams) (CompletionReply, error)
}
