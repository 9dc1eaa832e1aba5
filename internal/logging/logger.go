package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the JSON logger both binaries share. Level comes
// from LOG_LEVEL via config; source attribution stays on in production
// so every http_request and warn line carries its call site.
func NewLogger(level string) *slog.Logger {
	return New(os.Stdout, level, true)
}

// New is the injectable form: tests hand it io.Discard and turn
// source attribution off.
func New(w io.Writer, level string, addSource bool) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: addSource,
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
