// Package middleware provides middleware for kernel request handling.
//
// Each middleware wraps the next handler, so it can act before and after a
// request is dispatched. Errors returned by a handler are mapped to error
// responses by the transport.
//
// # Basic Usage
//
//	chain := middleware.Chain(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(middleware.Zerolog(log)),
//	)
//	handler := chain(baseHandler)
//
// # Available Middleware
//
//   - Recover: converts panics into execution errors
//   - RequestID: stores the effective request id in the context
//   - Timeout: bounds a request with a deadline
//   - Logging: logs one entry per request
//   - RateLimit: token bucket limiting backed by fortify
//   - OTel: OpenTelemetry spans and metrics
//
// Only restricts a middleware to a set of methods, which is how execution
// limits stay off the acknowledgement methods:
//
//	middleware.Only(middleware.Timeout(5*time.Second), protocol.MethodExecute)
package middleware
