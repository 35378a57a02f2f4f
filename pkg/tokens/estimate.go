// Package tokens оценивает размер запроса в токенах (tiktoken).
//
// Оценка используется только для debug-логов: OpenAI-совместимые серверы
// с чужими моделями считают токены по-своему.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/ilkoid/poncho-chat/pkg/llm"
)

// Накладные расходы chat-формата на сообщение и на priming ответа.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
	tokensPerToolDef = 7
	replyPriming     = 3
)

var (
	codecMu    sync.Mutex
	codecCache = map[tokenizer.Encoding]tokenizer.Codec{}
)

// codecFor возвращает codec модели; для неизвестных моделей — по префиксу имени.
func codecFor(model string) (tokenizer.Codec, error) {
	if codec, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return codec, nil
	}

	encoding := encodingFor(model)

	codecMu.Lock()
	defer codecMu.Unlock()

	if cached, ok := codecCache[encoding]; ok {
		return cached, nil
	}
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	codecCache[encoding] = codec
	return codec, nil
}

func encodingFor(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-5"), strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	default:
		return tokenizer.Cl100kBase
	}
}

// Estimate считает примерное число входных токенов запроса.
func Estimate(model string, messages []llm.Message, toolNames ...string) (int, error) {
	codec, err := codecFor(model)
	if err != nil {
		return 0, err
	}

	count := func(s string) int {
		if s == "" {
			return 0
		}
		ids, _, _ := codec.Encode(s)
		return len(ids)
	}

	total := 0
	for _, m := range messages {
		total += tokensPerMessage + tokensPerRole
		total += count(m.Content)
		for _, tc := range m.ToolCalls {
			total += count(tc.Name) + count(tc.Args) + 3
		}
	}
	for _, name := range toolNames {
		total += count(name) + tokensPerToolDef
	}

	return total + replyPriming, nil
}
