package handler

import (
	"context"
	"net/http"
	"time"

	"ride-console/internal/ports"
)

const serviceCallTimeout = 5 * time.Second

// emptyRides keeps the body at "rides": [] rather than null.
var emptyRides = []ports.EnrichedRide{}

// --- Handler: GET /admin/rides/active ---

func (handler *MonitorHTTPHandler) handleActiveRides(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	started := time.Now()
	res, err := handler.svc.GetActiveRides(ctxWithTimeout)
	if err != nil {
		handler.storeError(ctx, w, "failed to fetch active rides", err)
		return
	}
	if res.Rides == nil {
		res.Rides = emptyRides
	}

	handler.logger.Debug(ctx, "active_rides_served", "Active rides aggregated", map[string]any{
		"count":       res.Count,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	handler.jsonResponse(ctx, w, http.StatusOK, res)
}
