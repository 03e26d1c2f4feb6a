package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Global logger instance
var defaultLogger *slog.Logger

// Initialize sets up the global structured logger writing JSON to stdout
func Initialize(level slog.Level) {
	setDefault(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// InitializeText sets up a text-based logger (better for development)
func InitializeText(level slog.Level) {
	InitializeTextTo(os.Stdout, level)
}

// InitializeTextTo sets up a text-based logger on w. The CLI logs to stderr so
// stdout stays free for command output.
func InitializeTextTo(w io.Writer, level slog.Level) {
	setDefault(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func setDefault(h slog.Handler) {
	defaultLogger = slog.New(h)
	slog.SetDefault(defaultLogger)
}

// ParseLevel maps CARTAS_LOG_LEVEL values to slog levels, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns the default logger
func Logger() *slog.Logger {
	if defaultLogger == nil {
		Initialize(slog.LevelInfo)
	}
	return defaultLogger
}

// With returns a logger with additional attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// WithRequestID returns a logger with request ID attached
func WithRequestID(requestID string) *slog.Logger {
	return Logger().With("request_id", requestID)
}

// WithComponent returns a logger tagged with the subsystem name
func WithComponent(name string) *slog.Logger {
	return Logger().With("component", name)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// InfoContext logs at info level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(ctx, msg, args...)
}

// ErrorContext logs at error level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	Logger().ErrorContext(ctx, msg, args...)
}
