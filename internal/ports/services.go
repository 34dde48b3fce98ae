package ports

import (
	"context"
	"time"

	"ride-console/internal/domain/geo"
	"ride-console/internal/domain/ride"
)

// ----- DTOs for the monitoring service -----

// EnrichedRide is a live ride with its driver's latest telemetry attached.
// DriverLocation is non-nil only when the ride has a driver and that driver has a sample.
type EnrichedRide struct {
	ride.Record
	DriverLocation *geo.Sample `json:"driverLocation"`
}

// ActiveRidesResult is the body of GET /admin/rides/active.
type ActiveRidesResult struct {
	Rides []EnrichedRide `json:"rides"`
	Count int            `json:"count"`
}

// IDs returns the ride ids in list order.
func (result ActiveRidesResult) IDs() []string {
	ids := make([]string, 0, len(result.Rides))
	for _, r := range result.Rides {
		ids = append(ids, r.ID)
	}
	return ids
}

// SummaryResult is the body of GET /admin/overview.
type SummaryResult struct {
	Timestamp  time.Time `json:"timestamp"`
	Confirmed  int       `json:"confirmed"`
	Arrived    int       `json:"arrived"`
	InProgress int       `json:"in_progress"`
	Total      int       `json:"total"`
}

// ----- Monitoring Service Interface -----

// MonitorService exposes the boundary for the ride aggregation service.
type MonitorService interface {
	GetActiveRides(ctx context.Context) (ActiveRidesResult, error)
	GetSummary(ctx context.Context) (SummaryResult, error)
}
