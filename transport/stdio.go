package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

// Stdio serves the kernel protocol over stdin/stdout.
//
// Lines are handled strictly in order: a line is only read once the response
// to the previous one has been written and flushed. Blank lines produce no
// output. There is no limit on line length.
type Stdio struct {
	in  io.Reader
	out io.Writer
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom stdout writer. Writers with a Flush() error
// method are flushed after every response.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:  os.Stdin,
		out: os.Stdout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

type readResult struct {
	line string
	err  error
}

// Serve processes request lines until input ends, ctx is canceled or a
// response cannot be written. End of input returns nil.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	reader := bufio.NewReader(s.in)

	// The reader goroutine reads one line per token on next, so reads never
	// run ahead of responses.
	next := make(chan struct{})
	results := make(chan readResult)
	defer close(next)

	go func() {
		for range next {
			line, err := reader.ReadString('\n')
			select {
			case results <- readResult{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	ctx = protocol.SetRequestMeta(ctx, protocol.MetaTransport, s.Addr())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case next <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		var res readResult
		select {
		case res = <-results:
		case <-ctx.Done():
			return ctx.Err()
		}

		// A final line without a terminator arrives together with io.EOF.
		if line := strings.TrimSpace(res.line); line != "" {
			if err := s.writeResponse(Respond(ctx, handler, []byte(line))); err != nil {
				return err
			}
		}

		if res.err != nil {
			if errors.Is(res.err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read request: %w", res.err)
		}
	}
}

type flusher interface {
	Flush() error
}

func (s *Stdio) writeResponse(resp *protocol.Response) error {
	data, err := resp.Encode()
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if f, ok := s.out.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush response: %w", err)
		}
	}
	return nil
}
