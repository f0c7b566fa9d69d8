// Package ws exposes the session engine over websocket connections. Each
// connection gets a generated identity, a buffered outbound queue with a
// dedicated write pump, and a read loop feeding inbound frames to the engine.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ZXseITz/zx-tbsg/internal/id"
	"github.com/ZXseITz/zx-tbsg/internal/protocol"
	"github.com/ZXseITz/zx-tbsg/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// Session is the engine surface the transport drives. Connect must deliver
// the identity event through the supplied send function; Handle reports
// application errors to the client itself.
type Session interface {
	Connect(clientID string, send session.SendFunc) *session.Client
	Disconnect(clientID string)
	Handle(ctx context.Context, clientID string, data []byte)
}

// Config describes a websocket handler.
type Config struct {
	Session Session
	// VerifyToken gates the upgrade when set. The token is taken from the
	// Authorization header or the token query parameter.
	VerifyToken func(token string) error
}

// Handler upgrades HTTP requests and bridges connections to the session
// engine.
type Handler struct {
	session     Session
	verifyToken func(token string) error
	idGenerator func() (string, error)
	upgrader    websocket.Upgrader
}

// NewHandler creates a websocket handler for one session engine.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("session engine is required")
	}
	return &Handler{
		session:     cfg.Session,
		verifyToken: cfg.VerifyToken,
		idGenerator: id.NewID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}, nil
}

// ServeHTTP upgrades the request and serves the connection until the peer
// disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.verifyToken != nil {
		if err := h.verifyToken(requestToken(r)); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	clientID, err := h.idGenerator()
	if err != nil {
		log.Printf("client id generation failed error=%v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed error=%v", err)
		return
	}

	c := &conn{
		socket:   socket,
		outbound: make(chan []byte, sendBuffer),
	}
	go c.writePump()

	h.session.Connect(clientID, c.send)
	c.readPump(r.Context(), h.session, clientID)
}

// requestToken extracts a bearer token from the Authorization header or the
// token query parameter.
func requestToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

// conn is one live websocket connection. All writes to the socket go through
// the write pump; send only enqueues.
type conn struct {
	socket   *websocket.Conn
	outbound chan []byte

	mu     sync.Mutex
	closed bool
}

// send encodes an event and enqueues it for the write pump. It never blocks;
// a full queue or a closed connection is a delivery error.
func (c *conn) send(event protocol.Event) error {
	data, err := protocol.Encode(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.outbound <- data:
		return nil
	default:
		return errors.New("outbound queue full")
	}
}

// shutdown marks the connection closed and releases the write pump.
func (c *conn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbound)
}

// readPump feeds inbound frames to the session engine until the connection
// drops, then disconnects the client.
func (c *conn) readPump(ctx context.Context, engine Session, clientID string) {
	defer func() {
		engine.Disconnect(clientID)
		c.shutdown()
		_ = c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read failed client_id=%s error=%v", clientID, err)
			}
			return
		}
		engine.Handle(ctx, clientID, data)
	}
}

// writePump drains the outbound queue and keeps the connection alive with
// pings.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case data, ok := <-c.outbound:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
