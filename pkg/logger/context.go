package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// With stores a child logger carrying the given fields on the context.
// Request-scoped fields (trace id) travel this way instead of being
// threaded through every call.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, contextKey{}, From(ctx).With(fields...))
}

// From returns the context logger, falling back to the process-wide one.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
