package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// loggerKey is the key used to store the logger in the context.
// Using a custom type prevents collisions.
type contextKey string

const loggerKey = contextKey("logger")

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithOperation returns a context whose logger is enriched with a fresh operation id
// and the given attributes. The id is returned so callers can report it.
func WithOperation(ctx context.Context, name string, attrs ...any) (context.Context, string) {
	opID := uuid.NewString()
	logger := FromContext(ctx).With(
		slog.String("operation_id", opID),
		slog.String("operation", name),
	)
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}
	return WithLogger(ctx, logger), opID
}

// FromContext retrieves the operation-scoped logger from the context.
// It returns the default logger if none is found.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	logger, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}
