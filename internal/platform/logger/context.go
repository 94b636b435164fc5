package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
)

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault returns the logger stored in ctx, or fallback when ctx
// carries none. A request ID stored with WithRequestID is attached to the
// fallback so component loggers still correlate with the request.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if fallback == nil {
		fallback = slog.Default()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		return fallback.With(slog.String("request_id", id))
	}
	return fallback
}

// ForComponent returns the logger for ctx, falling back to base, tagged with
// the component name. Components call it per operation so request-scoped
// attributes and the component tag end up on the same entry.
func ForComponent(ctx context.Context, base *slog.Logger, component string) *slog.Logger {
	return FromContextOrDefault(ctx, base).With(slog.String("component", component))
}

// WithRequestID stores a request correlation ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
