package logging

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "logger"

// FromContext retrieves the logger from the context, falling back to the global logger
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return L()
	}
	return logger
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
