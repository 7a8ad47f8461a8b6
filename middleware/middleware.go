package middleware

import (
	"time"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

// DefaultStack returns the standard kernel middleware stack: panic
// recovery, effective request ids and logging.
func DefaultStack(logger Logger) []Middleware {
	return []Middleware{
		Recover(),
		RequestID(),
		Logging(logger),
	}
}

// DefaultStackWithTimeout returns the default stack with a deadline applied
// to execute requests only. Acknowledgement methods are never bounded.
func DefaultStackWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return []Middleware{
		Recover(),
		RequestID(),
		Logging(logger),
		Only(Timeout(timeout), protocol.MethodExecute),
	}
}
