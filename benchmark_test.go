package kernel_test

import (
	"context"
	"io"
	"strings"
	"testing"

	kernel "github.com/felixgeelhaar/kernel-go"
	"github.com/felixgeelhaar/kernel-go/middleware"
	"github.com/felixgeelhaar/kernel-go/protocol"
	"github.com/felixgeelhaar/kernel-go/transport"
)

// BenchmarkExecute measures evaluation through the JavaScript runtime.
func BenchmarkExecute(b *testing.B) {
	srv := kernel.NewServer(kernel.ServerInfo{Name: "benchmark"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := srv.Execute(context.Background(), "1 + 1"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMiddlewareChain measures middleware overhead.
func BenchmarkMiddlewareChain(b *testing.B) {
	baseHandler := func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		return protocol.NewResponse(req.ID, protocol.OK()), nil
	}
	req := &protocol.Request{ID: "1", Method: protocol.MethodPing}

	b.Run("no_middleware", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := baseHandler(context.Background(), req); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("default_stack", func(b *testing.B) {
		handler := middleware.Chain(middleware.DefaultStack(middleware.NopLogger{})...)(baseHandler)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := handler(context.Background(), req); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkJSONParsing measures request decoding and response encoding.
func BenchmarkJSONParsing(b *testing.B) {
	b.Run("request_parse", func(b *testing.B) {
		line := []byte(`{"id":"1","method":"execute","params":{"code":"1+1"}}`)
		for i := 0; i < b.N; i++ {
			if _, err := protocol.ParseRequest(line); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("response_encode", func(b *testing.B) {
		resp := protocol.NewResponse("1", protocol.PlainText("2"))
		for i := 0; i < b.N; i++ {
			if _, err := resp.Encode(); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkStdio measures a full request loop over pings.
func BenchmarkStdio(b *testing.B) {
	srv := kernel.NewServer(kernel.ServerInfo{Name: "benchmark"})
	input := strings.Repeat(`{"id":"1","method":"ping"}`+"\n", b.N)

	b.ResetTimer()
	t := transport.NewStdio(transport.WithStdin(strings.NewReader(input)), transport.WithStdout(io.Discard))
	if err := t.Serve(context.Background(), kernel.NewHandler(srv)); err != nil {
		b.Fatal(err)
	}
}
