// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free
// of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	actorID := requestcontext.ActorID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, actorID, "Jo Bloggs")
package requestcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey     struct{}
	actorNameKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyActorName   = actorNameKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorID retrieves the authenticated actor's ID from the context.
// Returns uuid.Nil if not set.
func ActorID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextKeyActorID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// ActorName retrieves the authenticated actor's display name.
func ActorName(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyActorName).(string); ok {
		return name
	}
	return ""
}

// WithActor injects the acting user's identity into the context.
func WithActor(ctx context.Context, id uuid.UUID, name string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyActorID, id)
	return context.WithValue(ctx, ContextKeyActorName, name)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full middleware chain, and for batch operations
// that need one consistent timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
