// Package kernel serves a code-evaluation kernel over newline-delimited
// JSON.
//
// A front-end sends one JSON request per line and receives exactly one JSON
// line back before the next request is read:
//
//	{"id":"1","method":"execute","params":{"code":"1+1"}}
//	{"id":"1","result":{"text/plain":"2"}}
//
// Basic usage:
//
//	srv := kernel.NewServer(kernel.ServerInfo{
//	    Name:    "my-kernel",
//	    Version: "1.0.0",
//	})
//
//	kernel.ServeStdio(ctx, srv, kernel.WithLogger(logger))
package kernel

import (
	"context"
	"time"

	"github.com/felixgeelhaar/kernel-go/evaluator"
	"github.com/felixgeelhaar/kernel-go/middleware"
	"github.com/felixgeelhaar/kernel-go/protocol"
	"github.com/felixgeelhaar/kernel-go/server"
	"github.com/felixgeelhaar/kernel-go/transport"
)

// Re-export core types for convenience

// ServerInfo contains kernel metadata.
type ServerInfo = server.Info

// Server is the kernel instance.
type Server = server.Server

// Option configures a Server.
type Option = server.Option

// Evaluator runs caller-supplied code.
type Evaluator = evaluator.Evaluator

// EvaluatorFunc adapts an ordinary function to Evaluator.
type EvaluatorFunc = evaluator.Func

// WithEvaluator sets the evaluator used by execute.
var WithEvaluator = server.WithEvaluator

// Middleware types
type Middleware = middleware.Middleware
type MiddlewareHandlerFunc = middleware.HandlerFunc
type Logger = middleware.Logger
type LogField = middleware.Field
type RateLimitOption = middleware.RateLimitOption

// Rate limiting
var (
	RateLimit            = middleware.RateLimit
	RateLimitByMethod    = middleware.RateLimitByMethod
	WithRateLimitKeyFunc = middleware.WithRateLimitKeyFunc
	WithRateLimitLogger  = middleware.WithRateLimitLogger
)

// WebSocketOption configures the WebSocket transport.
type WebSocketOption = transport.WebSocketOption

// ServeOption configures how the kernel is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []Middleware
	logger     Logger
}

// WithMiddleware adds middleware to the request handling chain.
func WithMiddleware(m ...Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithLogger installs the default middleware stack (panic recovery, request
// ids, request logging) in front of all other middleware.
func WithLogger(l Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = l
	}
}

// NewServer creates a new kernel with the given info and options.
func NewServer(info ServerInfo, opts ...Option) *Server {
	return server.New(info, opts...)
}

// ServeStdio runs the kernel over stdin/stdout.
// This blocks until input ends, the context is canceled or a response
// cannot be written. End of input returns nil.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	t := transport.NewStdio()
	return t.Serve(ctx, NewHandler(srv, opts...))
}

// ServeWebSocket runs the kernel using the WebSocket transport.
// This blocks until the context is canceled or an error occurs.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, opts ...WebSocketOption) error {
	t := transport.NewWebSocket(addr, opts...)
	return t.Serve(ctx, NewHandler(srv))
}

// ServeWebSocketWithMiddleware runs the kernel over WebSocket with custom middleware.
func ServeWebSocketWithMiddleware(ctx context.Context, srv *Server, addr string, wsOpts []WebSocketOption, serveOpts ...ServeOption) error {
	t := transport.NewWebSocket(addr, wsOpts...)
	return t.Serve(ctx, NewHandler(srv, serveOpts...))
}

// WithWebSocketReadTimeout sets how long the WebSocket transport waits for a request.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return transport.WithWebSocketReadTimeout(d)
}

// WithWebSocketWriteTimeout sets the WebSocket write timeout.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return transport.WithWebSocketWriteTimeout(d)
}

// Chain composes multiple middleware into a single middleware.
func Chain(middlewares ...Middleware) Middleware {
	return middleware.Chain(middlewares...)
}

// Only restricts m to the given methods.
func Only(m Middleware, methods ...string) Middleware {
	return middleware.Only(m, methods...)
}

// Recover returns middleware that converts panics into execution errors.
func Recover() Middleware {
	return middleware.Recover()
}

// Timeout returns middleware that enforces a request deadline.
func Timeout(d time.Duration) Middleware {
	return middleware.Timeout(d)
}

// RequestID returns middleware that puts the effective request id into the context.
func RequestID() Middleware {
	return middleware.RequestID()
}

// RequestIDFromContext returns the effective request id from context.
func RequestIDFromContext(ctx context.Context) string {
	return middleware.RequestIDFromContext(ctx)
}

// Logging returns middleware that logs request details.
func Logging(logger Logger) Middleware {
	return middleware.Logging(logger)
}

// DefaultMiddleware returns the recommended middleware stack.
func DefaultMiddleware(logger Logger) []Middleware {
	return middleware.DefaultStack(logger)
}

// DefaultMiddlewareWithTimeout returns the default stack with a deadline on execute.
func DefaultMiddlewareWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return middleware.DefaultStackWithTimeout(logger, timeout)
}

// LogF creates a log field.
func LogF(key string, value any) LogField {
	return middleware.F(key, value)
}

// NewHandler returns the transport handler that dispatches requests to srv.
// Middleware runs in this order: the default stack when WithLogger is set,
// then middleware registered with srv.Use, then WithMiddleware.
func NewHandler(srv *Server, opts ...ServeOption) transport.Handler {
	return newRequestHandler(srv, opts...)
}

// requestHandler adapts Server to transport.Handler
type requestHandler struct {
	srv        *Server
	handleFunc middleware.HandlerFunc
}

func newRequestHandler(srv *Server, opts ...ServeOption) *requestHandler {
	options := &serveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	h := &requestHandler{srv: srv}

	chain := middleware.Use()
	if options.logger != nil {
		chain.Append(middleware.DefaultStack(options.logger)...)
	}
	h.handleFunc = chain.
		Append(srv.Middleware()...).
		Append(options.middleware...).
		Then(h.handle)

	return h
}

func (h *requestHandler) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return h.handleFunc(ctx, req)
}

func (h *requestHandler) handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case protocol.MethodExecute:
		return h.handleExecute(ctx, req)
	case protocol.MethodInterrupt, protocol.MethodRestart, protocol.MethodPing:
		return h.handleAck(req)
	default:
		return nil, protocol.NewUnknownMethod(req.Method)
	}
}

func (h *requestHandler) handleExecute(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	result, err := h.srv.Execute(ctx, req.StringParam(protocol.ParamCode))
	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(req.ID, result), nil
}

// handleAck answers interrupt, restart and ping. Execution is synchronous,
// so there is never anything to interrupt; restart keeps evaluator state.
func (h *requestHandler) handleAck(req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, protocol.OK()), nil
}
