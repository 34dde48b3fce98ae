package handler

import (
	"context"
	"net/http"
)

// --- Handler: GET /admin/overview ---

func (handler *MonitorHTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	summary, err := handler.svc.GetSummary(ctxWithTimeout)
	if err != nil {
		handler.storeError(ctx, w, "failed to fetch ride summary", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, summary)
}
