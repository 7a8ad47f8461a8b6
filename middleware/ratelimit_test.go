package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/kernel-go/middleware"
	"github.com/felixgeelhaar/kernel-go/protocol"
)

func okHandler(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, protocol.OK()), nil
}

func TestRateLimit(t *testing.T) {
	t.Run("allows requests within burst", func(t *testing.T) {
		handler := middleware.RateLimit(10, 10)(okHandler)
		req := &protocol.Request{ID: "1", Method: protocol.MethodExecute}

		for i := 0; i < 5; i++ {
			resp, err := handler(context.Background(), req)
			if err != nil {
				t.Fatalf("request %d: unexpected error: %v", i, err)
			}
			if resp == nil {
				t.Fatalf("request %d: expected response", i)
			}
		}
	})

	t.Run("rejects requests exceeding limit with execution error", func(t *testing.T) {
		handler := middleware.RateLimit(1, 1)(okHandler)
		req := &protocol.Request{Method: protocol.MethodExecute}

		if _, err := handler(context.Background(), req); err != nil {
			t.Fatalf("first request: unexpected error: %v", err)
		}

		_, err := handler(context.Background(), req)
		var kerr *protocol.Error
		if !errors.As(err, &kerr) {
			t.Fatalf("expected *protocol.Error, got %v", err)
		}
		if kerr.Code != protocol.CodeExecutionError {
			t.Errorf("code = %q, want %q", kerr.Code, protocol.CodeExecutionError)
		}
		if kerr.Message != "rate limit exceeded" {
			t.Errorf("message = %q", kerr.Message)
		}
	})

	t.Run("per-method buckets are independent", func(t *testing.T) {
		handler := middleware.RateLimitByMethod(1, 1)(okHandler)

		if _, err := handler(context.Background(), &protocol.Request{Method: protocol.MethodExecute}); err != nil {
			t.Fatalf("execute: unexpected error: %v", err)
		}
		if _, err := handler(context.Background(), &protocol.Request{Method: protocol.MethodPing}); err != nil {
			t.Fatalf("ping: unexpected error: %v", err)
		}
	})

	t.Run("logs rejected requests", func(t *testing.T) {
		logger := &countingLogger{}
		handler := middleware.RateLimit(1, 1, middleware.WithRateLimitLogger(logger))(okHandler)
		req := &protocol.Request{Method: protocol.MethodExecute}

		_, _ = handler(context.Background(), req)
		_, _ = handler(context.Background(), req)

		if logger.warns != 1 {
			t.Errorf("warns = %d, want 1", logger.warns)
		}
	})
}

type countingLogger struct {
	middleware.NopLogger
	warns int
}

func (l *countingLogger) Warn(msg string, fields ...middleware.Field) { l.warns++ }
