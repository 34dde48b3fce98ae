package ports

import (
	"context"
	"errors"

	"ride-console/internal/domain/geo"
	"ride-console/internal/domain/ride"
)

// TelemetryBatchLimit is the largest identifier set a telemetry lookup accepts.
const TelemetryBatchLimit = 30

// ErrBatchTooLarge is returned by telemetry stores for lookups above TelemetryBatchLimit.
var ErrBatchTooLarge = errors.New("telemetry lookup exceeds batch limit")

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RideRepository reads live rides from the ride store.
type RideRepository interface {
	// ListByStatus returns every ride currently in status, normalized.
	ListByStatus(ctx context.Context, status ride.Status) ([]ride.Record, error)
	CountByStatus(ctx context.Context, status ride.Status) (int, error)
}

// TelemetryRepository reads the latest position sample per driver.
type TelemetryRepository interface {
	// LatestForDrivers returns a sample for each id that has one. Callers must keep
	// len(driverIDs) <= TelemetryBatchLimit.
	LatestForDrivers(ctx context.Context, driverIDs []string) (map[string]geo.Sample, error)
}
