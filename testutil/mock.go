package testutil

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

// MockTransport is a client transport that answers requests from a script
// instead of a kernel. It records every request it receives.
type MockTransport struct {
	mu        sync.Mutex
	requests  []*protocol.Request
	responder func(*protocol.Request) *protocol.Response
	closed    bool
}

// NewMockTransport creates a mock that acknowledges interrupt, restart and
// ping, answers execute with an empty text/plain result and rejects
// anything else as unknown.
func NewMockTransport() *MockTransport {
	return &MockTransport{responder: defaultResponder}
}

func defaultResponder(req *protocol.Request) *protocol.Response {
	switch req.Method {
	case protocol.MethodExecute:
		return protocol.NewResponse(req.ID, protocol.PlainText(""))
	case protocol.MethodInterrupt, protocol.MethodRestart, protocol.MethodPing:
		return protocol.NewResponse(req.ID, protocol.OK())
	default:
		return protocol.NewErrorResponse(req.ID, protocol.NewUnknownMethod(req.Method))
	}
}

// RespondWith replaces the responder.
func (m *MockTransport) RespondWith(fn func(*protocol.Request) *protocol.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// Send records req and returns the scripted response.
func (m *MockTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.responder(req), nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// RecordedRequests returns a copy of the requests sent so far.
func (m *MockTransport) RecordedRequests() []*protocol.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*protocol.Request(nil), m.requests...)
}

// Reset clears the recorded requests.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}
