package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ride-console/internal/domain/user"
	"ride-console/internal/general/contracts"
	"ride-console/internal/general/jwt"
	"ride-console/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	authWindow       = 5 * time.Second
	readIdle         = 60 * time.Second
	pingEvery        = 30 * time.Second
	sendQueue        = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Console is the session a view talks to.
type Console interface {
	Post(ctx context.Context, intent contracts.WSViewIntent) error
	Attach(ctx context.Context, send func(frame any)) error
}

// Hub fans console frames out to every authenticated view and feeds view intents back.
type Hub struct {
	logger     *logger.Logger
	jwtMgr     *jwt.Manager
	console    Console
	writeLocks sync.Map
	clients    sync.Map // key: *client -> struct{}
}

// NewHub creates a view hub with JWT auth.
func NewHub(logger *logger.Logger, jwtMgr *jwt.Manager) *Hub {
	return &Hub{logger: logger, jwtMgr: jwtMgr}
}

// Bind sets the console session that receives view intents. Call before serving.
func (h *Hub) Bind(console Console) {
	h.console = console
}

// ConnectConsole handles a console view connection with first-frame JWT auth.
func (h *Hub) ConnectConsole(w http.ResponseWriter, r *http.Request) {
	// 1) Upgrade HTTP -> WS
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	// Teardown order (LIFO on return):
	defer conn.Close()              // close the socket last
	defer h.writeLocks.Delete(conn) // forget per-connection mutex (idempotent)

	// 2) Auth deadline
	conn.SetReadLimit(64 << 10)
	if err := conn.SetReadDeadline(time.Now().Add(authWindow)); err != nil {
		h.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		_ = h.sendAuthError(conn, "internal server error")
		return
	}

	// 3) First frame must authenticate
	msgType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		h.logger.Warn(r.Context(), "ws_auth_read_failed", "View disconnected before authentication", err, nil)
		_ = h.sendAuthError(conn, "authentication timeout: please send auth message within 5 seconds")
		return
	}
	if msgType != websocket.TextMessage {
		_ = h.sendAuthError(conn, "auth message must be in text format")
		return
	}

	claims, err := jwt.ValidateWSAuth(firstFrame, h.jwtMgr, user.MonitoringRoles...)
	if err != nil {
		h.logger.Warn(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		_ = h.sendAuthError(conn, "authentication failed: invalid token")
		return
	}
	operator := claims.Subject

	if err := h.sendAuthSuccess(conn, claims); err != nil {
		h.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	h.logger.Info(r.Context(), "ws_connected", "Console view connected",
		map[string]any{"operator": operator, "role": claims.Role})

	// 4) Outbound queue and writer
	c := newClient(conn)
	defer h.drop(c)
	go h.writePump(r.Context(), c)

	// 5) Replay the current state; the client joins broadcasts atomically with it
	var join sync.Once
	err = h.console.Attach(r.Context(), func(frame any) {
		join.Do(func() { h.clients.Store(c, struct{}{}) })
		h.enqueue(c, frame)
	})
	if err != nil {
		h.logger.Warn(r.Context(), "ws_attach_failed", "Console session unavailable", err, nil)
		h.wsWriteClose(conn, websocket.CloseTryAgainLater, "console unavailable")
		return
	}

	// 6) Keepalive
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readIdle))
	})
	go h.pingLoop(r.Context(), c)

	// 7) Read loop: view intents
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readIdle))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn(r.Context(), "ws_unexpected_close", "Console view closed unexpectedly", err,
					map[string]any{"operator": operator})
			} else {
				h.logger.Info(r.Context(), "ws_connection_closed", "Console view disconnected",
					map[string]any{"operator": operator})
			}
			h.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			return
		}

		var intent contracts.WSViewIntent
		if err := json.Unmarshal(payload, &intent); err != nil {
			h.enqueue(c, contracts.WSError{Type: contracts.WSFrameError, Error: "bad json"})
			continue
		}

		switch intent.Type {
		case contracts.WSIntentClick, contracts.WSIntentSelect:
			if err := h.console.Post(r.Context(), intent); err != nil {
				h.logger.Warn(r.Context(), "ws_intent_failed", "Console did not accept view intent", err,
					map[string]any{"operator": operator, "intent": intent.Type})
				h.enqueue(c, contracts.WSError{Type: contracts.WSFrameError, Error: "console unavailable"})
			}
		default:
			h.enqueue(c, contracts.WSError{Type: contracts.WSFrameError, Error: "unknown message type"})
		}
	}
}

// Broadcast sends frame to every attached view. Views that cannot keep up are dropped.
func (h *Hub) Broadcast(frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error(context.Background(), "ws_broadcast_marshal_failed", "Failed to encode console frame", err, nil)
		return
	}
	h.clients.Range(func(key, _ any) bool {
		h.push(key.(*client), payload)
		return true
	})
}

// Clients reports how many views currently receive broadcasts.
func (h *Hub) Clients() int {
	n := 0
	h.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Shutdown closes every view connection with a going-away frame.
func (h *Hub) Shutdown() {
	h.clients.Range(func(key, _ any) bool {
		c := key.(*client)
		h.wsWriteClose(c.conn, websocket.CloseGoingAway, "server shutting down")
		h.drop(c)
		_ = c.conn.Close()
		return true
	})
}

// sendAuthError sends an authentication error message to the view.
func (h *Hub) sendAuthError(conn *websocket.Conn, message string) error {
	return h.writeJSON(conn, map[string]any{
		"type":    contracts.WSFrameAuthError,
		"error":   message,
		"success": false,
	})
}

// sendAuthSuccess sends an authentication success message to the view.
func (h *Hub) sendAuthSuccess(conn *websocket.Conn, claims *jwt.Claims) error {
	return h.writeJSON(conn, map[string]any{
		"type":      contracts.WSFrameAuthOK,
		"message":   "Authentication successful",
		"success":   true,
		"operator":  claims.Subject,
		"role":      claims.Role,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
