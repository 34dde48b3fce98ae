package handler

import (
	"context"
	"net/http"
	"time"
)

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// --- Handler: GET /admin/health ---

// handleHealth reports "ok", or 503 when the ride store does not answer a ping.
func (handler *MonitorHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if handler.db == nil {
		handler.jsonResponse(r.Context(), w, http.StatusOK, healthBody{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := handler.db.Ping(ctx); err != nil {
		handler.logger.Warn(ctx, "health_db_unreachable", "Ride store ping failed", err, nil)
		handler.jsonResponse(ctx, w, http.StatusServiceUnavailable, healthBody{Status: "degraded", Database: "unreachable"})
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, healthBody{Status: "ok", Database: "ok"})
}
