package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestID returns middleware that puts the request's effective id into the
// context: the caller's id when one was sent, otherwise a fresh UUID. The
// generated id is for logs and traces only and never reaches the response.
func RequestID() Middleware {
	return RequestIDWithGenerator(uuid.NewString)
}

// RequestIDWithGenerator returns middleware that uses a custom id generator
// for requests without an id.
func RequestIDWithGenerator(generator func() string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if existing := RequestIDFromContext(ctx); existing != "" {
				return next(ctx, req)
			}

			id := req.ID
			if !req.HasID() {
				id = generator()
			}
			return next(ContextWithRequestID(ctx, id), req)
		}
	}
}

// RequestIDFromContext returns the effective request id, or "" if not set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithRequestID returns a new context with the effective request id set.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
