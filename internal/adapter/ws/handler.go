// Package ws implements the WebSocket adapter that pushes hub events and
// dashboard snapshots to connected staff viewers.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/athena/internal/logger"
)

const (
	// writeTimeout bounds a single write on a viewer's writer goroutine.
	writeTimeout = 5 * time.Second
	// sendQueueSize is how many messages may wait for one viewer. A viewer
	// whose queue is full is disconnected.
	sendQueueSize = 32
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WelcomeFunc produces the first message a newly connected viewer receives.
type WelcomeFunc func(ctx context.Context) (Message, error)

// conn wraps a single WebSocket connection. Everything after the welcome is
// written by writeLoop from the send queue.
type conn struct {
	ws       *websocket.Conn
	ctx      context.Context
	cancel   context.CancelFunc
	send     chan []byte
	viewerID string
}

// Hub manages all active WebSocket connections and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*conn]struct{}
	welcome WelcomeFunc
}

// NewHub creates a new WebSocket hub. welcome may be nil.
func NewHub(welcome WelcomeFunc) *Hub {
	return &Hub{
		conns:   make(map[*conn]struct{}),
		welcome: welcome,
	}
}

// HandleWS upgrades the connection, sends the welcome snapshot, and keeps
// the viewer registered until it disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	// The request context ends when the handler returns; the connection outlives it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{
		ws:       ws,
		ctx:      ctx,
		cancel:   cancel,
		send:     make(chan []byte, sendQueueSize),
		viewerID: logger.ViewerID(r.Context()),
	}

	if h.welcome != nil {
		if err := h.sendWelcome(ctx, c); err != nil {
			slog.Warn("websocket welcome failed", "viewer_id", c.viewerID, "error", err)
			cancel()
			_ = ws.Close(websocket.StatusInternalError, "welcome failed")
			return
		}
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr, "viewer_id", c.viewerID)

	go h.writeLoop(c)

	// Read loop (to detect disconnects and consume pings)
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) sendWelcome(ctx context.Context, c *conn) error {
	msg, err := h.welcome(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return write(ctx, c, data)
}

// writeLoop drains the viewer's queue until the connection is removed.
func (h *Hub) writeLoop(c *conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.send:
			if err := write(c.ctx, c, data); err != nil {
				slog.Debug("websocket write failed", "viewer_id", c.viewerID, "error", err)
				h.remove(c)
				return
			}
		}
	}
}

// Broadcast queues a message for every connected viewer and returns without
// waiting for any socket. Viewers that cannot keep up are disconnected.
func (h *Hub) Broadcast(_ context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "type", msg.Type, "error", err)
		return
	}

	var slow []*conn
	h.mu.RLock()
	for c := range h.conns {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("websocket viewer too slow, disconnecting", "viewer_id", c.viewerID, "type", msg.Type)
		h.remove(c)
	}
}

func write(ctx context.Context, c *conn, data []byte) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(wctx, websocket.MessageText, data)
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.cancel()
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.conns, c)
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "viewer_id", c.viewerID)
	}
}
