// Package ctxutil carries request-scoped values (the acting user and a
// logger) through context.Context. It has no internal dependencies so any
// package can import it.
package ctxutil

import (
	"context"
	"log/slog"
)

type actorKey struct{}

type loggerKey struct{}

// WithActorID returns a context carrying the acting user's id.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the acting user's id, or "" if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the context's logger, falling back to fallback and then to
// slog.Default. The actor, when known, is attached as an attribute.
func Logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}
	if actor := ActorFromContext(ctx); actor != "" {
		logger = logger.With("actor", actor)
	}
	return logger
}
