package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one attached view with its own outbound queue.
type client struct {
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	doneOnce sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendQueue), done: make(chan struct{})}
}

func (c *client) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// enqueue marshals v and queues it for c.
func (h *Hub) enqueue(c *client, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error(context.Background(), "ws_marshal_failed", "Failed to encode frame", err, nil)
		return
	}
	h.push(c, payload)
}

// push queues payload without blocking; a full queue drops the view.
func (h *Hub) push(c *client, payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- payload:
	default:
		h.logger.Warn(context.Background(), "ws_view_slow", "Console view fell behind; disconnecting", nil, nil)
		h.drop(c)
		_ = c.conn.Close()
	}
}

// drop unregisters c and stops its writer.
func (h *Hub) drop(c *client) {
	h.clients.Delete(c)
	c.close()
}

func (h *Hub) writePump(ctx context.Context, c *client) {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := h.wsWriteMessage(c.conn, websocket.TextMessage, payload); err != nil {
				h.logger.Warn(ctx, "ws_write_failed", "Failed to write to console view", err, nil)
				h.drop(c)
				// unblock the reader
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) pingLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			mu := h.lockOf(c.conn)
			mu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				_ = c.conn.Close()
				h.logger.Warn(ctx, "ws_ping_failed", "Failed to send ping", err, nil)
				return
			}
		}
	}
}

// wsWriteClose sends a close control frame with the given code and reason.
func (h *Hub) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	mu := h.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// wsWriteMessage sets a short write deadline and writes a message.
func (h *Hub) wsWriteMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := h.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// lockOf returns the mutex for a specific connection
func (h *Hub) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := h.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := h.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}

// writeJSON marshals v and writes a single TextMessage directly, bypassing the queue.
func (h *Hub) writeJSON(conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.wsWriteMessage(conn, websocket.TextMessage, payload)
}
