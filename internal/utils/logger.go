package utils

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
)

// InitLogger configures the global slog logger. Level is one of
// "debug", "info", "warn", "error"; anything else falls back to info.
func InitLogger(level string) {
	loggerOnce.Do(func() {
		var lvl slog.Level
		switch strings.ToLower(level) {
		case "debug":
			lvl = slog.LevelDebug
		case "warn":
			lvl = slog.LevelWarn
		case "error":
			lvl = slog.LevelError
		default:
			lvl = slog.LevelInfo
		}

		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
		logger = slog.New(handler)
		slog.SetDefault(logger)
	})
}

func getLogger() *slog.Logger {
	if logger == nil {
		InitLogger("info")
	}
	return logger
}

// LogInfo logs an info message with structured attributes.
func LogInfo(ctx context.Context, msg string, attrs ...any) {
	getLogger().InfoContext(ctx, msg, attrs...)
}

// LogWarn logs a warning message with structured attributes.
func LogWarn(ctx context.Context, msg string, attrs ...any) {
	getLogger().WarnContext(ctx, msg, attrs...)
}

// LogError logs an error message, attaching the error as an attribute.
func LogError(ctx context.Context, msg string, err error, attrs ...any) {
	all := make([]any, 0, len(attrs)+1)
	all = append(all, slog.Any("error", err))
	all = append(all, attrs...)
	getLogger().ErrorContext(ctx, msg, all...)
}

// LogDebug logs a debug message with structured attributes.
func LogDebug(ctx context.Context, msg string, attrs ...any) {
	getLogger().DebugContext(ctx, msg, attrs...)
}
