package llm

import (
	"errors"
	"fmt"
)

// ErrConnection возвращается когда endpoint недоступен (DNS, отказ, TLS, таймаут).
var ErrConnection = errors.New("connection failed")

// ErrCompletion возвращается когда endpoint ответил ошибочным HTTP статусом.
var ErrCompletion = errors.New("completion request rejected")

// ErrEmptyReply возвращается когда в ответе нет ни одного choice.
var ErrEmptyReply = errors.New("no choices in response")

// ConnectionError — транспортная ошибка с адресом endpoint.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is проверяет что ошибка является ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// CompletionError — endpoint доступен, но отклонил запрос.
type CompletionError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion request to %s failed with status %d: %v", e.Endpoint, e.StatusCode, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Is проверяет что ошибка является ErrCompletion.
func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletion
}
