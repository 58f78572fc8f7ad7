// Package logger provides a slog-based structured logger shared across the
// application. The TUI owns stderr, so logs default to a file sink.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Init points the logger at the given file path, creating parent
// directories as needed. An empty path or open failure keeps the stderr
// handler. The level comes from PACEWATCH_LOG_LEVEL (debug|info|warn|error).
func Init(path string) {
	var w io.Writer = os.Stderr
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
				w = f
			}
		}
	}

	opts := &slog.HandlerOptions{Level: levelFromEnv()}
	mu.Lock()
	logger = slog.New(slog.NewTextHandler(w, opts))
	mu.Unlock()
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("PACEWATCH_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Error logs an error message.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}
