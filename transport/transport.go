package transport

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

// Handler processes incoming kernel requests.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// Transport defines the communication layer interface.
type Transport interface {
	// Serve starts the transport, blocking until ctx is canceled, input ends
	// or an error occurs.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// Respond turns one request line into exactly one response. Invalid JSON
// yields a parse error without an id. Handler errors become error responses:
// *protocol.Error values keep their code and anything else is reported as an
// execution error. The response id always follows the request: echoed when
// the caller sent one, omitted otherwise.
func Respond(ctx context.Context, handler Handler, line []byte) *protocol.Response {
	req, perr := protocol.ParseRequest(line)
	if perr != nil {
		return protocol.NewErrorResponse("", perr)
	}

	resp, err := handler.HandleRequest(ctx, req)
	if err != nil {
		resp = protocol.NewErrorResponse(req.ID, AsProtocolError(err))
	}
	if resp == nil {
		resp = protocol.NewErrorResponse(req.ID, protocol.NewExecutionError("no response"))
	}
	resp.ID = req.ID
	return resp
}

// AsProtocolError maps err onto the closed error-code set.
func AsProtocolError(err error) *protocol.Error {
	var kerr *protocol.Error
	if errors.As(err, &kerr) {
		return kerr
	}
	return protocol.NewExecutionError(err.Error())
}
