// Package testutil provides testing utilities for kernels and front-ends.
//
// TestClient drives a kernel in-process, RunLines replays a raw session
// through the stdio request loop, and MockTransport stands in for a kernel
// when testing code built on the client package.
//
// Example usage:
//
//	func TestMyEvaluator(t *testing.T) {
//	    srv := kernel.NewServer(kernel.ServerInfo{Name: "test"},
//	        kernel.WithEvaluator(myEvaluator{}))
//
//	    tc := testutil.NewTestClient(t, srv)
//	    got, err := tc.Execute("1+1")
//	    if err != nil || got != "2" {
//	        t.Fatalf("Execute() = %q, %v", got, err)
//	    }
//	}
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	kernel "github.com/felixgeelhaar/kernel-go"
	"github.com/felixgeelhaar/kernel-go/protocol"
	"github.com/felixgeelhaar/kernel-go/server"
	"github.com/felixgeelhaar/kernel-go/transport"
)

// TestClient sends requests straight to a kernel handler, without a
// transport in between. Responses go through the same error mapping a
// transport applies.
type TestClient struct {
	t       testing.TB
	handler transport.Handler
	reqID   int64
	mu      sync.Mutex
}

// NewTestClient creates a test client for srv.
func NewTestClient(t testing.TB, srv *server.Server, opts ...kernel.ServeOption) *TestClient {
	t.Helper()
	return NewTestClientWithHandler(t, kernel.NewHandler(srv, opts...))
}

// NewTestClientWithHandler creates a test client with a custom handler.
// This is useful for testing middleware.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{
		t:       t,
		handler: handler,
	}
}

func (tc *TestClient) nextID() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.reqID++
	return fmt.Sprintf("test-%d", tc.reqID)
}

// SendLine handles one raw request line and returns its response.
func (tc *TestClient) SendLine(line string) *protocol.Response {
	tc.t.Helper()
	return transport.Respond(context.Background(), tc.handler, []byte(line))
}

// SendRequest sends a request with a generated id and returns the response.
func (tc *TestClient) SendRequest(method string, params map[string]any) (*protocol.Response, error) {
	tc.t.Helper()

	req := map[string]any{
		"id":     tc.nextID(),
		"method": method,
	}
	if params != nil {
		req["params"] = params
	}
	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return tc.SendLine(string(line)), nil
}

// Execute evaluates code and returns the text/plain result. Error responses
// are returned as *protocol.Error.
func (tc *TestClient) Execute(code string) (string, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodExecute, map[string]any{protocol.ParamCode: code})
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result, ok := resp.Result.(map[string]string)
	if !ok {
		return "", fmt.Errorf("unexpected result type: %T", resp.Result)
	}
	return result[protocol.MIMEPlainText], nil
}

// Ping sends a ping request.
func (tc *TestClient) Ping() error {
	tc.t.Helper()
	return tc.ack(protocol.MethodPing)
}

// Interrupt sends an interrupt request.
func (tc *TestClient) Interrupt() error {
	tc.t.Helper()
	return tc.ack(protocol.MethodInterrupt)
}

// Restart sends a restart request.
func (tc *TestClient) Restart() error {
	tc.t.Helper()
	return tc.ack(protocol.MethodRestart)
}

func (tc *TestClient) ack(method string) error {
	resp, err := tc.SendRequest(method, nil)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result, ok := resp.Result.(map[string]bool); !ok || !result["ok"] {
		return fmt.Errorf("unexpected %s result: %v", method, resp.Result)
	}
	return nil
}

// RunLines feeds lines through a stdio request loop served by handler and
// returns the output lines.
func RunLines(t testing.TB, handler transport.Handler, lines ...string) []string {
	t.Helper()

	input := strings.Join(lines, "\n")
	if len(lines) > 0 {
		input += "\n"
	}

	var out bytes.Buffer
	s := transport.NewStdio(
		transport.WithStdin(strings.NewReader(input)),
		transport.WithStdout(&out),
	)
	if err := s.Serve(context.Background(), handler); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	if out.Len() == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
}

// DecodeResponse parses an output line.
func DecodeResponse(t testing.TB, line string) *protocol.Response {
	t.Helper()
	var resp protocol.Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("invalid response line %q: %v", line, err)
	}
	return &resp
}

// AssertErrorCode fails the test unless resp is an error response with code.
func AssertErrorCode(t testing.TB, resp *protocol.Response, code string) {
	t.Helper()
	if resp.Error == nil {
		t.Errorf("expected %s error, got result %v", code, resp.Result)
		return
	}
	if resp.Error.Code != code {
		t.Errorf("error code = %q, want %q", resp.Error.Code, code)
	}
}

// AssertID fails the test unless resp carries id. An empty id asserts that
// the response has none.
func AssertID(t testing.TB, resp *protocol.Response, id string) {
	t.Helper()
	if resp.ID != id {
		t.Errorf("response id = %q, want %q", resp.ID, id)
	}
}
