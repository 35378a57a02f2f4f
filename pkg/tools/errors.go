package tools

import (
	"errors"
	"fmt"
)

// ErrLoad возвращается когда объявленный инструмент не удалось загрузить.
var ErrLoad = errors.New("tool load failed")

// ErrUnknownTool возвращается когда модель запросила незарегистрированный инструмент.
var ErrUnknownTool = errors.New("unknown tool")

// ErrToolExecution возвращается когда вызов инструмента завершился ошибкой.
var ErrToolExecution = errors.New("tool execution failed")

// LoadError — ошибка загрузки с контекстом локатора.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to load tool %q: %v", e.Locator, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is проверяет что ошибка является ErrLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// UnknownToolError — запрошенный моделью инструмент не найден в реестре.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unable to find tool corresponding to tool request: %s", e.Name)
}

// Is проверяет что ошибка является ErrUnknownTool.
func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}

// ToolExecutionError — ошибка вызова инструмента. Исходная причина сохраняется.
type ToolExecutionError struct {
	Name   string
	CallID string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s (call %s) failed: %v", e.Name, e.CallID, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// Is проверяет что ошибка является ErrToolExecution.
func (e *ToolExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}
