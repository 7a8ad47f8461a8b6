package server

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/kernel-go/evaluator"
	"github.com/felixgeelhaar/kernel-go/middleware"
	"github.com/felixgeelhaar/kernel-go/protocol"
)

type namedEvaluator struct {
	evaluator.Func
	language string
}

func (n namedEvaluator) Language() string { return n.language }

func TestNewServer(t *testing.T) {
	t.Run("creates server with info", func(t *testing.T) {
		srv := New(Info{Name: "test-kernel", Version: "1.0.0"})

		info := srv.Info()
		if info.Name != "test-kernel" {
			t.Errorf("Name = %q, want %q", info.Name, "test-kernel")
		}
		if info.Version != "1.0.0" {
			t.Errorf("Version = %q, want %q", info.Version, "1.0.0")
		}
	})

	t.Run("defaults to javascript", func(t *testing.T) {
		srv := New(Info{Name: "test"})

		if srv.Evaluator() == nil {
			t.Fatal("expected default evaluator")
		}
		if got := srv.Info().Language; got != "javascript" {
			t.Errorf("Language = %q, want %q", got, "javascript")
		}
	})

	t.Run("takes language from evaluator", func(t *testing.T) {
		srv := New(Info{Name: "test"}, WithEvaluator(namedEvaluator{language: "lisp"}))
		if got := srv.Info().Language; got != "lisp" {
			t.Errorf("Language = %q, want %q", got, "lisp")
		}
	})

	t.Run("explicit language wins", func(t *testing.T) {
		srv := New(Info{Name: "test", Language: "scheme"}, WithEvaluator(namedEvaluator{language: "lisp"}))
		if got := srv.Info().Language; got != "scheme" {
			t.Errorf("Language = %q, want %q", got, "scheme")
		}
	})

	t.Run("applies functional options", func(t *testing.T) {
		called := false
		New(Info{Name: "test"}, func(s *Server) { called = true })

		if !called {
			t.Error("expected option to be called")
		}
	})
}

func TestServer_Execute(t *testing.T) {
	t.Run("wraps representation as plain text", func(t *testing.T) {
		srv := New(Info{Name: "test"}, WithEvaluator(evaluator.Func(func(ctx context.Context, code string) (string, error) {
			return "repr(" + code + ")", nil
		})))

		got, err := srv.Execute(context.Background(), "1+1")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if got[protocol.MIMEPlainText] != "repr(1+1)" {
			t.Errorf("result = %v", got)
		}
		if len(got) != 1 {
			t.Errorf("result has extra keys: %v", got)
		}
	})

	t.Run("evaluator failure becomes execution error", func(t *testing.T) {
		srv := New(Info{Name: "test"}, WithEvaluator(evaluator.Func(func(ctx context.Context, code string) (string, error) {
			return "", evaluator.Errorf("NameError: name 'x' is not defined")
		})))

		_, err := srv.Execute(context.Background(), "x")
		var kerr *protocol.Error
		if !errors.As(err, &kerr) {
			t.Fatalf("expected *protocol.Error, got %v", err)
		}
		if kerr.Code != protocol.CodeExecutionError {
			t.Errorf("code = %q, want %q", kerr.Code, protocol.CodeExecutionError)
		}
		if kerr.Message != "NameError: name 'x' is not defined" {
			t.Errorf("message = %q", kerr.Message)
		}
	})

	t.Run("javascript state persists", func(t *testing.T) {
		srv := New(Info{Name: "test"})

		if _, err := srv.Execute(context.Background(), "var counter = 41"); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		got, err := srv.Execute(context.Background(), "counter + 1")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if got[protocol.MIMEPlainText] != "42" {
			t.Errorf("result = %v, want 42", got)
		}
	})

	t.Run("counts executions", func(t *testing.T) {
		srv := New(Info{Name: "test"}, WithEvaluator(evaluator.Func(func(ctx context.Context, code string) (string, error) {
			if code == "bad" {
				return "", errors.New("bad")
			}
			return "", nil
		})))

		_, _ = srv.Execute(context.Background(), "good")
		_, _ = srv.Execute(context.Background(), "bad")

		if n := srv.ExecutionCount(); n != 2 {
			t.Errorf("ExecutionCount() = %d, want 2", n)
		}
	})
}

func TestServer_Use(t *testing.T) {
	srv := New(Info{Name: "test"})
	srv.Use(middleware.Recover(), middleware.RequestID())

	mws := srv.Middleware()
	if len(mws) != 2 {
		t.Fatalf("len(Middleware()) = %d, want 2", len(mws))
	}

	mws[0] = nil
	if srv.Middleware()[0] == nil {
		t.Error("Middleware() should return a copy")
	}
}
