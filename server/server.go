package server

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/kernel-go/evaluator"
	"github.com/felixgeelhaar/kernel-go/evaluator/js"
	"github.com/felixgeelhaar/kernel-go/middleware"
	"github.com/felixgeelhaar/kernel-go/protocol"
)

// Info contains kernel metadata.
type Info struct {
	Name    string
	Version string

	// Language names the evaluated language. When empty it is taken from
	// the evaluator if that reports one.
	Language string
}

// Option configures a Server.
type Option func(*Server)

// WithEvaluator sets the evaluator used by execute. The default is a
// JavaScript evaluator.
func WithEvaluator(e evaluator.Evaluator) Option {
	return func(s *Server) {
		s.evaluator = e
	}
}

// Server is the kernel instance: an evaluator plus the middleware every
// transport applies in front of it.
type Server struct {
	mu sync.RWMutex

	info       Info
	evaluator  evaluator.Evaluator
	middleware []middleware.Middleware

	executions atomic.Int64
}

type languager interface {
	Language() string
}

// New creates a new kernel server with the given info and options.
func New(info Info, opts ...Option) *Server {
	s := &Server{info: info}

	for _, opt := range opts {
		opt(s)
	}

	if s.evaluator == nil {
		s.evaluator = js.New()
	}
	if s.info.Language == "" {
		if l, ok := s.evaluator.(languager); ok {
			s.info.Language = l.Language()
		}
	}

	return s
}

// Info returns the server info.
func (s *Server) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Evaluator returns the evaluator serving execute requests.
func (s *Server) Evaluator() evaluator.Evaluator {
	return s.evaluator
}

// Use registers middleware to be executed on every request.
func (s *Server) Use(m ...middleware.Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, m...)
}

// Middleware returns a copy of the registered middleware.
func (s *Server) Middleware() []middleware.Middleware {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]middleware.Middleware(nil), s.middleware...)
}

// Execute evaluates code and returns the execute result. Evaluator failures
// are returned as execution errors carrying the evaluator's message.
func (s *Server) Execute(ctx context.Context, code string) (map[string]string, error) {
	n := s.executions.Add(1)

	repr, err := s.evaluator.Evaluate(ctx, code)
	if err != nil {
		middleware.AddSpanEvent(ctx, "kernel.execute.failed", attribute.Int64("kernel.execution", n))
		return nil, protocol.NewExecutionError(err.Error())
	}

	middleware.AddSpanEvent(ctx, "kernel.execute.done",
		attribute.Int64("kernel.execution", n),
		attribute.Int("kernel.output.bytes", len(repr)),
	)
	return protocol.PlainText(repr), nil
}

// ExecutionCount returns how many execute requests reached the evaluator.
func (s *Server) ExecutionCount() int64 {
	return s.executions.Load()
}
