package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/kernel-go/protocol"
)

// WebSocket serves the kernel protocol over a WebSocket connection. Every
// text message is one request line and gets exactly one response message.
//
// The kernel has a single front-end: only one connection is served at a
// time and further upgrade attempts are refused with 409 Conflict.
type WebSocket struct {
	addr     string
	upgrader websocket.Upgrader

	readTimeout  time.Duration
	writeTimeout time.Duration
	shutdown     *ShutdownManager

	mu     sync.Mutex
	active *wsClient
}

// wsClient is the connection currently being served.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWebSocketReadTimeout sets how long the transport waits for the next
// request. Zero waits forever.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.readTimeout = d
	}
}

// WithWebSocketWriteTimeout sets the write timeout for responses.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin sets the origin check function for WebSocket upgrades.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = fn
	}
}

// WithWebSocketShutdown configures how Serve drains the request in progress
// when its context is canceled.
func WithWebSocketShutdown(cfg ShutdownConfig) WebSocketOption {
	return func(ws *WebSocket) {
		ws.shutdown = NewShutdownManager(cfg)
	}
}

// NewWebSocket creates a new WebSocket transport listening on addr.
func NewWebSocket(addr string, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		writeTimeout: 10 * time.Second,
		shutdown:     NewShutdownManager(DefaultShutdownConfig()),
	}

	for _, opt := range opts {
		opt(ws)
	}

	return ws
}

// Addr returns the transport address.
func (ws *WebSocket) Addr() string {
	return ws.addr
}

// Serve listens on the configured address and serves until ctx is canceled.
func (ws *WebSocket) Serve(ctx context.Context, handler Handler) error {
	ln, err := net.Listen("tcp", ws.addr)
	if err != nil {
		return err
	}
	return ws.ServeListener(ctx, ln, handler)
}

// ServeListener serves connections accepted on ln until ctx is canceled.
// On cancellation the request in progress is drained, the active client is
// closed and the listener is shut down.
func (ws *WebSocket) ServeListener(ctx context.Context, ln net.Listener, handler Handler) error {
	server := &http.Server{
		Handler:           ws.HTTPHandler(ctx, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ws.shutdown.Shutdown(shutdownCtx)
		ws.closeActive()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// HTTPHandler returns the upgrade handler. Requests are dispatched with ctx
// as their parent context.
func (ws *WebSocket) HTTPHandler(ctx context.Context, handler Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, ok := ws.claim()
		if !ok {
			http.Error(w, "kernel already has a client", http.StatusConflict)
			return
		}
		defer ws.release(client)

		conn, err := ws.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client.mu.Lock()
		client.conn = conn
		client.mu.Unlock()

		reqCtx := protocol.ContextWithRequestMeta(ctx, protocol.RequestMeta{
			protocol.MetaTransport:  "websocket",
			protocol.MetaRemoteAddr: r.RemoteAddr,
		})
		ws.serveClient(reqCtx, client, handler)
	})
}

func (ws *WebSocket) serveClient(ctx context.Context, client *wsClient, handler Handler) {
	for {
		if ctx.Err() != nil {
			return
		}

		if ws.readTimeout > 0 {
			_ = client.conn.SetReadDeadline(time.Now().Add(ws.readTimeout))
		}

		_, message, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		line := strings.TrimSpace(string(message))
		if line == "" {
			continue
		}

		if !ws.shutdown.TrackRequest() {
			return
		}
		resp := Respond(ctx, handler, []byte(line))
		err = client.write(resp, ws.writeTimeout)
		ws.shutdown.CompleteRequest()
		if err != nil {
			return
		}
	}
}

func (ws *WebSocket) claim() (*wsClient, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.active != nil {
		return nil, false
	}
	ws.active = &wsClient{}
	return ws.active, true
}

func (ws *WebSocket) release(client *wsClient) {
	ws.mu.Lock()
	if ws.active == client {
		ws.active = nil
	}
	ws.mu.Unlock()
	client.close()
}

func (ws *WebSocket) closeActive() {
	ws.mu.Lock()
	client := ws.active
	ws.mu.Unlock()
	if client != nil {
		client.close()
	}
}

func (c *wsClient) write(resp *protocol.Response, timeout time.Duration) error {
	data, err := resp.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, bytes.TrimSuffix(data, []byte("\n")))
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = c.conn.Close()
}
