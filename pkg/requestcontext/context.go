// Package requestcontext carries the request id and the request clock.
//
// The HTTP middleware stamps both once per request. Services and stores read
// them without importing net/http, so every timestamp written during one
// placement (created_at, paid_at, released_at) is the same instant.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey struct{}
	clockKey     struct{}
)

// RequestID returns the id stamped by the middleware, or "" outside a request.
func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request's instant. Reconciliation runs and tests without a
// stamped clock get the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(clockKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the clock, for the middleware and for deterministic tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, clockKey{}, t)
}
