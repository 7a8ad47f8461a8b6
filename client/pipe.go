package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

// PipeTransport speaks the kernel protocol over a pair of streams. Each
// Send writes one request line and reads exactly one response line.
//
// If a Send is abandoned because its context ended, the response stream is
// out of step with the requests and the transport refuses further use.
type PipeTransport struct {
	mu     sync.Mutex
	w      io.WriteCloser
	r      *bufio.Reader
	closed bool
	broken error
}

// NewPipeTransport creates a transport that writes requests to w and reads
// responses from r.
func NewPipeTransport(r io.Reader, w io.WriteCloser) *PipeTransport {
	return &PipeTransport{
		w: w,
		r: bufio.NewReader(r),
	}
}

type lineResult struct {
	line []byte
	err  error
}

// Send sends a request and waits for its response.
func (t *PipeTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}
	if t.broken != nil {
		return nil, fmt.Errorf("client: transport unusable after %w", t.broken)
	}

	if _, err := t.w.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	done := make(chan lineResult, 1)
	go func() {
		line, err := t.r.ReadBytes('\n')
		done <- lineResult{line: line, err: err}
	}()

	var res lineResult
	select {
	case <-ctx.Done():
		t.broken = ctx.Err()
		return nil, ctx.Err()
	case res = <-done:
	}

	line := bytes.TrimSpace(res.line)
	if len(line) == 0 {
		if res.err != nil {
			return nil, fmt.Errorf("read response: %w", res.err)
		}
		return nil, ErrEmptyResponse
	}

	var resp protocol.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// Close closes the request stream, which ends the kernel's input.
func (t *PipeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.w.Close()
}
