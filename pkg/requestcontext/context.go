// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and the refresh pipeline read them so
// log lines can be correlated without importing net/http.
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	refreshRunKey  struct{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RefreshRunID retrieves the ID of the refresh pass running on this context.
func RefreshRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(refreshRunKey{}).(string); ok {
		return runID
	}
	return ""
}

// WithRefreshRunID tags the context with a refresh pass ID.
func WithRefreshRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, refreshRunKey{}, runID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (CLI, background callers).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
