// Package client talks to a kernel from the front-end side.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

var (
	// ErrClosed is returned when sending on a closed transport.
	ErrClosed = errors.New("client: transport closed")

	// ErrIDMismatch is returned when a response answers a different request.
	ErrIDMismatch = errors.New("client: response id mismatch")

	// ErrEmptyResponse is returned when the kernel answers with a blank line.
	ErrEmptyResponse = errors.New("client: kernel returned empty response")
)

// Transport defines the interface for client-side transport.
type Transport interface {
	// Send sends a request and waits for its response.
	Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
	// Close closes the transport connection.
	Close() error
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout time.Duration
	newID   func() string
}

// WithTimeout bounds every call. Zero, the default, leaves calls unbounded
// because evaluations may legitimately run for a long time.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithIDGenerator replaces the UUID request id generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *clientOptions) {
		o.newID = fn
	}
}

// Client sends kernel requests over a Transport, one at a time.
type Client struct {
	transport Transport
	opts      clientOptions
}

// New creates a new kernel client with the given transport.
func New(transport Transport, opts ...Option) *Client {
	options := clientOptions{
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{
		transport: transport,
		opts:      options,
	}
}

// Execute evaluates code and returns the plain text representation.
// Kernel-side failures are returned as *protocol.Error.
func (c *Client) Execute(ctx context.Context, code string) (string, error) {
	resp, err := c.Call(ctx, protocol.MethodExecute, map[string]any{protocol.ParamCode: code})
	if err != nil {
		return "", fmt.Errorf("execute: %w", err)
	}

	var result map[string]string
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("execute: invalid result: %w", err)
	}
	text, ok := result[protocol.MIMEPlainText]
	if !ok {
		return "", fmt.Errorf("execute: result has no %s entry", protocol.MIMEPlainText)
	}
	return text, nil
}

// Ping checks that the kernel is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.ack(ctx, protocol.MethodPing)
}

// Interrupt asks the kernel to stop the current evaluation.
func (c *Client) Interrupt(ctx context.Context) error {
	return c.ack(ctx, protocol.MethodInterrupt)
}

// Restart asks the kernel to restart.
func (c *Client) Restart(ctx context.Context) error {
	return c.ack(ctx, protocol.MethodRestart)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) ack(ctx context.Context, method string) error {
	resp, err := c.Call(ctx, method, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(resp, &result); err != nil || !result.OK {
		return fmt.Errorf("%s: unexpected result %s", method, resp)
	}
	return nil
}

// Call sends an arbitrary method and returns the raw result. Error responses
// are returned as *protocol.Error.
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	if c.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}

	req := &protocol.Request{
		ID:     c.opts.newID(),
		Method: method,
	}
	if len(params) > 0 {
		req.Params = make(map[string]json.RawMessage, len(params))
		for k, v := range params {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("marshal param %q: %w", k, err)
			}
			req.Params[k] = data
		}
	}

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrIDMismatch, resp.ID, req.ID)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	data, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return data, nil
}
