package network

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/messages"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

const (
	// MessageBufferSize is the largest frame accepted from the peer.
	MessageBufferSize = messages.MaxLineLength

	defaultDialTimeout  = 5 * time.Second
	defaultWriteTimeout = 2 * time.Second
)

// WSTransport is a WebSocket connection to the game controller. Each text
// frame carries one protocol line.
type WSTransport struct {
	id          string
	serverAddr  string
	dialTimeout time.Duration
	logger      *log.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewWSTransport creates a transport for serverAddr, e.g. ws://192.168.1.20/ws.
func NewWSTransport(serverAddr string) *WSTransport {
	id := uuid.NewString()
	return &WSTransport{
		id:          id,
		serverAddr:  serverAddr,
		dialTimeout: defaultDialTimeout,
		logger:      log.With("transport", id).With("kind", KindSocket.String()),
	}
}

func (t *WSTransport) ID() string {
	return t.id
}

func (t *WSTransport) Kind() Kind {
	return KindSocket
}

// Open validates the address and dials in the background.
func (t *WSTransport) Open(ctx context.Context, handler Handler) error {
	u, err := url.Parse(t.serverAddr)
	if err != nil {
		return fmt.Errorf("invalid server address %q: %w", t.serverAddr, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid server address %q: scheme must be ws or wss", t.serverAddr)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil || t.closed {
		return fmt.Errorf("transport %s was already opened", t.id)
	}
	t.ctx, t.cancel = context.WithCancel(ctx)

	go t.run(t.ctx, handler)
	return nil
}

func (t *WSTransport) run(ctx context.Context, handler Handler) {
	t.logger.Info("Connecting to WebSocket server at %s", t.serverAddr)
	dialCtx, cancelDial := context.WithTimeout(ctx, t.dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, t.serverAddr, nil)
	cancelDial()
	if err != nil {
		handler.OnClosed(t, fmt.Errorf("failed to connect to server: %w", err))
		return
	}
	conn.SetReadLimit(MessageBufferSize)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		handler.OnClosed(t, &ErrConnectionClosedByClient{})
		return
	}
	t.conn = conn
	t.mu.Unlock()

	handler.OnOpen(t)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				err = &ErrConnectionClosedByClient{}
			} else if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				t.logger.Debug("WebSocket closed by server with status %v", status)
			}
			handler.OnClosed(t, err)
			return
		}
		handler.OnMessage(t, string(data))
	}
}

// Write sends b as one text frame.
func (t *WSTransport) Write(b []byte) error {
	t.mu.Lock()
	conn, ctx := t.conn, t.ctx
	t.mu.Unlock()
	if conn == nil {
		return &ErrNotOpen{}
	}

	ctx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %w", err)
	}
	return nil
}

// Close stops the transport without waiting for the closing handshake.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		t.logger.Warn("WebSocket connection is already closed")
		return nil
	}
	t.closed = true
	if t.cancel != nil {
		t.cancel()
	}
	if t.conn != nil {
		conn := t.conn
		go func() {
			if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil && !errors.Is(err, context.Canceled) {
				t.logger.Trace("Closing WebSocket: %v", err)
			}
		}()
	}
	return nil
}
