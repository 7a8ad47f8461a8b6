// Package transport carries kernel requests and responses.
//
// # Stdio Transport
//
// The stdio transport reads newline-delimited JSON requests from stdin and
// writes one JSON line per request to stdout. A request is answered, and
// the answer flushed, before the next line is read:
//
//	t := transport.NewStdio()
//	err := t.Serve(ctx, handler)
//
// # WebSocket Transport
//
// The WebSocket transport treats each text message as a request line. It
// serves a single client at a time:
//
//	t := transport.NewWebSocket("127.0.0.1:8765")
//	err := t.Serve(ctx, handler)
//
// # Handler Interface
//
// All transports expect a Handler that processes requests:
//
//	type Handler interface {
//	    HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
//	}
//
// Respond applies the shared rules for turning a line into a response, so
// every transport reports parse failures and handler errors the same way.
package transport
