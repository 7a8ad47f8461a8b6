package kernel_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	kernel "github.com/felixgeelhaar/kernel-go"
	"github.com/felixgeelhaar/kernel-go/middleware"
	"github.com/felixgeelhaar/kernel-go/protocol"
	"github.com/felixgeelhaar/kernel-go/transport"
)

// Example runs a short session against the default JavaScript kernel.
func Example() {
	srv := kernel.NewServer(kernel.ServerInfo{Name: "example-kernel", Version: "1.0.0"})

	input := strings.Join([]string{
		`{"id":"1","method":"execute","params":{"code":"var n = 6"}}`,
		`{"id":"2","method":"execute","params":{"code":"n * 7"}}`,
		`{"id":"3","method":"ping"}`,
		`not json`,
	}, "\n")

	var out strings.Builder
	t := transport.NewStdio(transport.WithStdin(strings.NewReader(input)), transport.WithStdout(&out))
	_ = t.Serve(context.Background(), kernel.NewHandler(srv))

	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if strings.Contains(line, protocol.CodeParseError) {
			line = `{"error":{"code":"parse_error",...}}`
		}
		fmt.Println(line)
	}
	// Output:
	// {"id":"1","result":{"text/plain":"undefined"}}
	// {"id":"2","result":{"text/plain":"42"}}
	// {"id":"3","result":{"ok":true}}
	// {"error":{"code":"parse_error",...}}
}

// ExampleWithEvaluator plugs in a custom evaluator.
func ExampleWithEvaluator() {
	upper := kernel.EvaluatorFunc(func(ctx context.Context, code string) (string, error) {
		return strings.ToUpper(code), nil
	})
	srv := kernel.NewServer(kernel.ServerInfo{Name: "shout"}, kernel.WithEvaluator(upper))

	result, _ := srv.Execute(context.Background(), "hello")
	fmt.Println(result[protocol.MIMEPlainText])
	// Output: HELLO
}

// ExampleDefaultMiddlewareWithTimeout shows the production middleware stack:
// recovery, request ids, logging and a deadline on execute only.
func ExampleDefaultMiddlewareWithTimeout() {
	srv := kernel.NewServer(kernel.ServerInfo{Name: "kernel", Version: "1.0.0"})
	handler := kernel.NewHandler(srv, kernel.WithMiddleware(
		kernel.DefaultMiddlewareWithTimeout(middleware.NopLogger{}, 30*time.Second)...,
	))

	resp, _ := handler.HandleRequest(context.Background(), &protocol.Request{ID: "1", Method: protocol.MethodPing})
	line, _ := resp.Encode()
	fmt.Print(string(line))
	// Output: {"id":"1","result":{"ok":true}}
}
