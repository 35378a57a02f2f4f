// Параметры генерации и функциональные опции для их переопределения.

package llm

import "github.com/ilkoid/poncho-chat/pkg/config"

// GenerationParams прикладываются без изменений к каждому запросу вызова.
type GenerationParams struct {
	Temperature      float64
	MaxTokens        int
	TopP             int
	FrequencyPenalty int
	PresencePenalty  int
}

// GenerateOption — функциональная опция для GenerationParams.
type GenerateOption func(*GenerationParams)

// NewGenerationParams возвращает дефолты с применёнными опциями.
func NewGenerationParams(opts ...GenerateOption) GenerationParams {
	p := GenerationParams{
		Temperature: config.DefaultTemperature,
		MaxTokens:   config.DefaultMaxTokens,
		TopP:        config.DefaultTopP,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithTemperature задаёт temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(p *GenerationParams) {
		p.Temperature = temp
	}
}

// WithMaxTokens задаёт ограничение длины ответа.
func WithMaxTokens(tokens int) GenerateOption {
	return func(p *GenerationParams) {
		p.MaxTokens = tokens
	}
}

// WithTopP задаёт top_p.
func WithTopP(topP int) GenerateOption {
	return func(p *GenerationParams) {
		p.TopP = topP
	}
}

// WithPenalties задаёт frequency_penalty и presence_penalty.
func WithPenalties(frequency, presence int) GenerateOption {
	return func(p *GenerationParams) {
		p.FrequencyPenalty = frequency
		p.PresencePenalty = presence
	}
}
