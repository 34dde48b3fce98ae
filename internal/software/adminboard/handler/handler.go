package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ride-console/internal/domain/user"
	"ride-console/internal/general/jwt"
	"ride-console/internal/general/logger"
	"ride-console/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorHTTPHandler adapts HTTP requests to the MonitorService.
type MonitorHTTPHandler struct {
	svc    ports.MonitorService
	logger *logger.Logger
	auth   *jwt.Manager
	db     Pinger
}

// NewMonitorHTTPHandler wires an HTTP handler around the MonitorService. db may be nil.
func NewMonitorHTTPHandler(svc ports.MonitorService, logger *logger.Logger, auth *jwt.Manager, db Pinger) *MonitorHTTPHandler {
	return &MonitorHTTPHandler{svc: svc, logger: logger, auth: auth, db: db}
}

// RegisterRoutes mounts monitoring endpoints on the provided mux.
func (handler *MonitorHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	guard := jwt.AuthMiddlewareFunc(handler.auth, user.MonitoringRoles...)

	mux.HandleFunc("GET /admin/rides/active", guard(handler.handleActiveRides))
	mux.HandleFunc("GET /admin/overview", guard(handler.handleOverview))
	mux.HandleFunc("GET /admin/health", handler.handleHealth)
}

// ----- general helpers -----

// jsonResponse encodes data as the JSON response body.
func (handler *MonitorHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	buf := []byte("{}")
	if data != nil {
		var err error
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

type errBody struct {
	Error string `json:"error"`
}

// httpError logs err and sends {"error": msg}.
func (handler *MonitorHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	}
	handler.logger.Error(ctx, action, msg, err, nil)
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// storeError hides driver details from clients; *pgconn.PgError becomes "database error".
func (handler *MonitorHTTPHandler) storeError(ctx context.Context, w http.ResponseWriter, fallback string, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
		return
	}
	handler.httpError(ctx, w, http.StatusInternalServerError, fallback, err)
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *MonitorHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
