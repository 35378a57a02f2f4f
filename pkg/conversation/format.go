package conversation

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FormatResult превращает результат инструмента в текст tool-сообщения.
//
// Строки передаются как есть, числа в кратчайшей десятичной форме,
// nil даёт пустую строку, составные значения сериализуются в JSON.
func FormatResult(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case []byte:
		return string(r)
	case bool:
		return strconv.FormatBool(r)
	case int:
		return strconv.Itoa(r)
	case int32:
		return strconv.FormatInt(int64(r), 10)
	case int64:
		return strconv.FormatInt(r, 10)
	case uint:
		return strconv.FormatUint(uint64(r), 10)
	case uint64:
		return strconv.FormatUint(r, 10)
	case float32:
		return strconv.FormatFloat(float64(r), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(r, 'f', -1, 64)
	case json.Number:
		return r.String()
	case fmt.Stringer:
		return r.String()
	case error:
		return r.Error()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
