// Package requestcontext holds request-scoped values that services read
// without importing net/http.
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests pin the clock with requestcontext.WithTime(ctx, fixedTime).
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
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

// Now retrieves the request-scoped time, falling back to time.Now() for
// workers and CLI commands.
func Now(ctx context.Context) time.Time {
	if t, ok := Pinned(ctx); ok {
		return t
	}
	return time.Now()
}

// Pinned reports the time set by WithTime, if any.
func Pinned(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(requestTimeKey{}).(time.Time)
	return t, ok
}

// WithTime pins the time returned by Now.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
