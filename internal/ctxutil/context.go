// Package ctxutil carries request tracing values (user, operation, request
// ID) through context.Context under private keys.
package ctxutil

import "context"

type key int

const (
	userIDKey key = iota
	operationKey
	requestIDKey
)

func with(ctx context.Context, k key, v string) context.Context {
	return context.WithValue(ctx, k, v)
}

func get(ctx context.Context, k key) (string, bool) {
	v, ok := ctx.Value(k).(string)
	return v, ok && v != ""
}

// WithUserID scopes ctx to the user named in the request path.
func WithUserID(ctx context.Context, userID string) context.Context {
	return with(ctx, userIDKey, userID)
}

// GetUserID returns the user ID, or "" when none is set.
func GetUserID(ctx context.Context) string {
	v, _ := get(ctx, userIDKey)
	return v
}

// MustGetUserID is GetUserID for handlers mounted behind the user
// middleware. It panics when the ID is missing.
func MustGetUserID(ctx context.Context) string {
	v, ok := get(ctx, userIDKey)
	if !ok {
		panic("ctxutil: user ID not set; route is missing the user middleware")
	}
	return v
}

// WithOperation names the planner operation being served, e.g. "add_course".
func WithOperation(ctx context.Context, op string) context.Context {
	return with(ctx, operationKey, op)
}

// GetOperation returns the operation name, or "".
func GetOperation(ctx context.Context) string {
	v, _ := get(ctx, operationKey)
	return v
}

// WithRequestID tags ctx with the request's correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID and whether a non-empty one is set.
func GetRequestID(ctx context.Context) (string, bool) {
	return get(ctx, requestIDKey)
}

// PreserveTracing returns a fresh context holding only the tracing values of
// ctx. It has no deadline and is never canceled, so work such as a catalog
// reload started over HTTP finishes even if the client goes away.
func PreserveTracing(ctx context.Context) context.Context {
	out := context.Background()
	for _, k := range []key{userIDKey, operationKey, requestIDKey} {
		if v, ok := get(ctx, k); ok {
			out = with(out, k, v)
		}
	}
	return out
}
