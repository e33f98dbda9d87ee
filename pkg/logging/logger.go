package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	runIDKey     contextKey = "runID"
)

// LevelTrace is below DEBUG and logs every step of a reduction
const LevelTrace = slog.LevelDebug - 4

// Logs go to stderr so stdout stays free for reports and JSON
var (
	output io.Writer = os.Stderr
	logger atomic.Pointer[slog.Logger]
)

func init() {
	logger.Store(slog.New(NewCompactHandler(output, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// SetOutput redirects log output, keeping the current handler kind and level
func SetOutput(w io.Writer, level slog.Level, json bool) {
	output = w
	if json {
		SetJSONOutput(level)
		return
	}
	SetLevel(level)
}

// SetLevel changes the logging level
func SetLevel(level slog.Level) {
	logger.Store(slog.New(NewCompactHandler(output, &slog.HandlerOptions{Level: level})))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	logger.Store(slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})))
}

// ParseLevel resolves the level from an explicit verbosity name or, when
// that is empty, from the number of -v flags: one for DEBUG, two for TRACE.
func ParseLevel(verbosity string, verbose int) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(verbosity)) {
	case "":
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown verbosity %q", verbosity)
	}

	switch {
	case verbose >= 2:
		return LevelTrace, nil
	case verbose == 1:
		return slog.LevelDebug, nil
	}
	return slog.LevelInfo, nil
}

// Enabled reports whether messages at level would be written
func Enabled(level slog.Level) bool {
	return logger.Load().Enabled(context.Background(), level)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRunID tags the context with the id of an analysis run
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the analysis run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		return runID
	}
	return ""
}

// withContextIDs prepends the request and run IDs found in ctx
func withContextIDs(ctx context.Context, args []any) []any {
	if runID := GetRunID(ctx); runID != "" {
		args = append([]any{"runID", runID}, args...)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		args = append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	logger.Load().Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger.Load().Log(ctx, LevelTrace, msg, withContextIDs(ctx, args)...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.Load().DebugContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.Load().InfoContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.Load().WarnContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Error logs at ERROR level (logical bugs that shouldn't happen)
func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.Load().ErrorContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Fatal logs at ERROR level and exits
func Fatal(msg string, args ...any) {
	logger.Load().Error(msg, args...)
	os.Exit(1)
}
