// Package utils предоставляет логгер и вспомогательные функции для poncho-chat.
//
// Логгер — тонкий фасад над log/slog: Info/Debug/Warn/Error с парами key=value.
// До вызова InitLogger все сообщения отбрасываются, поэтому пакеты могут
// логировать безусловно, а тесты не засоряют вывод.
package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// LoggerOptions — параметры инициализации логгера.
type LoggerOptions struct {
	// File — путь к .log файлу. Пустая строка = stderr.
	File string

	// Debug включает уровень DEBUG.
	Debug bool
}

var (
	logMutex sync.Mutex
	logFile  *os.File
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// InitLogger настраивает глобальный логгер.
//
// Повторный вызов закрывает предыдущий файл и переключает вывод.
func InitLogger(opts LoggerOptions) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	var out io.Writer = os.Stderr
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		closeFileLocked()
		logFile = f
		out = f
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	logger.Info("Logger initialized", "file", opts.File, "debug", opts.Debug)
	return nil
}

// SetOutput направляет лог в произвольный writer (используется в тестах).
func SetOutput(w io.Writer, debug bool) {
	logMutex.Lock()
	defer logMutex.Unlock()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	current().Info(msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	current().Error(msg, keyvals...)
}

// Debug - отладочное сообщение.
func Debug(msg string, keyvals ...any) {
	current().Debug(msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	current().Warn(msg, keyvals...)
}

func current() *slog.Logger {
	logMutex.Lock()
	defer logMutex.Unlock()
	return logger
}

// Close закрывает лог-файл и возвращает логгер в режим discard.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	closeFileLocked()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func closeFileLocked() {
	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
	}
	logFile = nil
}
