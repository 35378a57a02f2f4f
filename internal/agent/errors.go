package agent

import "fmt"

// Error — терминальная ошибка вызова с этапом и endpoint.
//
// Err — ошибка из таксономии (llm.ConnectionError, tools.UnknownToolError, ...),
// доступная через errors.Is / errors.As.
type Error struct {
	Stage    Stage
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s against %s failed: %v", e.Stage, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
