// Реестр загруженных инструментов одного вызова.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateTool возвращается при повторной регистрации имени.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Registry — упорядоченное хранилище инструментов.
//
// Порядок регистрации сохраняется: в нём же отдаются определения
// и prompt addenda.
type Registry struct {
	mu   sync.RWMutex
	caps []Capability
}

// NewRegistry создает новый пустой реестр.
func NewRegistry() *Registry {
	return &Registry{}
}

// validateToolDefinition проверяет что ToolDefinition соответствует JSON Schema.
//
// Валидирует:
//   - Name не пустой
//   - Parameters является JSON объектом
//   - Parameters.type == "object"
//   - Parameters.required является массивом строк
func validateToolDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if def.Parameters == nil {
		return fmt.Errorf("tool '%s': parameters cannot be nil", def.Name)
	}

	// Сериализуем Parameters в JSON, чтобы []string и []any проверялись одинаково
	paramsJSON, err := json.Marshal(def.Parameters)
	if err != nil {
		return fmt.Errorf("tool '%s': failed to marshal parameters: %w", def.Name, err)
	}

	var params map[string]any
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return fmt.Errorf("tool '%s': parameters must be a JSON object, got: %s", def.Name, string(paramsJSON))
	}

	typeVal, ok := params["type"]
	if !ok {
		return fmt.Errorf("tool '%s': parameters must have 'type' field", def.Name)
	}

	typeStr, ok := typeVal.(string)
	if !ok {
		return fmt.Errorf("tool '%s': parameters.type must be a string, got: %T", def.Name, typeVal)
	}

	if typeStr != "object" {
		return fmt.Errorf("tool '%s': parameters.type must be 'object', got: '%s'", def.Name, typeStr)
	}

	if requiredVal, exists := params["required"]; exists {
		required, ok := requiredVal.([]any)
		if !ok {
			return fmt.Errorf("tool '%s': parameters.required must be an array", def.Name)
		}

		for i, item := range required {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("tool '%s': parameters.required[%d] must be a string, got: %T", def.Name, i, item)
			}
		}
	}

	return nil
}

// Register добавляет инструмент в реестр с валидацией схемы.
//
// Повторное имя отклоняется с ErrDuplicateTool.
func (r *Registry) Register(c Capability) error {
	def := c.Definition()

	if err := validateToolDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.caps {
		if existing.Definition().Name == def.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
		}
	}
	r.caps = append(r.caps, c)
	return nil
}

// Find ищет инструмент по точному (регистрозависимому) имени.
// При дубликатах побеждает первый зарегистрированный.
func (r *Registry) Find(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.caps {
		if c.Definition().Name == name {
			return c, true
		}
	}
	return nil, false
}

// Definitions возвращает определения всех инструментов в порядке загрузки.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.caps))
	for _, c := range r.caps {
		defs = append(defs, c.Definition())
	}
	return defs
}

// Len возвращает число зарегистрированных инструментов.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.caps)
}

// Addenda возвращает непустые prompt addenda в порядке загрузки.
func (r *Registry) Addenda() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.caps))
	for _, c := range r.caps {
		if a := c.PromptAddendum(); a != "" {
			out = append(out, a)
		}
	}
	return out
}
