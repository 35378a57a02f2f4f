package utils

import (
	"strings"
)

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// Некоторые модели присылают аргументы tool call обёрнутыми в кодовый блок:
//
//	```json
//	{"key": "value"}
//	```
//
// Примеры:
//
//	```json {"a": 1} ``` → {"a": 1}
//	``` {"a": 1} ``` → {"a": 1}
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```Json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// Truncate обрезает строку до max рун, добавляя "..." (для логов).
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
