package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

// Timeout returns middleware that enforces a request deadline. The handler
// sees a context that expires after d; evaluators stop when it does. A
// non-positive d disables the deadline.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, req)
		}
	}
}
