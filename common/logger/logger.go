package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/lmittmann/tint"
)

// requestIDKey is the context key the HTTP layer stores the request id under
type requestIDKey struct{}

// Logger wraps slog.Logger with contextual fields
type Logger struct {
	*slog.Logger
	withStack bool
}

// New creates a new logger writing to stdout
func New(level, format string) *Logger {
	return NewWithWriter(level, format, os.Stdout)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(level, format string, w io.Writer) *Logger {
	var handler slog.Handler

	logLevel := parseLevel(level)

	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: logLevel,
		})
	default:
		// tint for colored console output in development
		handler = tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.TimeOnly,
			AddSource:  false,
			NoColor:    w != os.Stdout,
		})
	}

	return &Logger{
		Logger:    slog.New(handler),
		withStack: logLevel <= slog.LevelDebug,
	}
}

// Nop returns a logger that discards everything, for tests
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ContextWithRequestID stores a request id for WithContext to pick up
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// WithContext returns a logger carrying the request_id found in ctx, if any
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok && requestID != "" {
		return &Logger{
			Logger:    l.With("request_id", requestID),
			withStack: l.withStack,
		}
	}
	return l
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		Logger:    l.With(args...),
		withStack: l.withStack,
	}
}

// WithImageID adds image_id to logger context
func (l *Logger) WithImageID(imageID string) *Logger {
	return &Logger{
		Logger:    l.With("image_id", imageID),
		withStack: l.withStack,
	}
}

// Error logs an error, with a stack trace when running at debug level
func (l *Logger) Error(msg string, args ...any) {
	if l.withStack {
		args = append(args, "stack", string(debug.Stack()))
	}
	l.Logger.Error(msg, args...)
}

// ErrorContext logs an error with context, with a stack trace at debug level
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	if l.withStack {
		args = append(args, "stack", string(debug.Stack()))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
