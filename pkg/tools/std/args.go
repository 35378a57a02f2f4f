// Package std содержит встроенные инструменты poncho-chat.
//
// Каждый инструмент получает явную секцию конфигурации через фабрику
// каталога и не обращается к окружению процесса.
package std

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// numberArg извлекает обязательный числовой аргумент.
func numberArg(args map[string]any, key string) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("missing required argument %q", key)
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", key, raw)
	}
}

// stringArg извлекает строковый аргумент. Отсутствие допустимо только если !required.
func stringArg(args map[string]any, key string, required bool) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("missing required argument %q", key)
		}
		return "", nil
	}

	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, raw)
	}
	if required && s == "" {
		return "", fmt.Errorf("argument %q must not be empty", key)
	}
	return s, nil
}
