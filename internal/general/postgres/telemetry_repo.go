package postgres

import (
	"context"
	"fmt"
	"time"

	"ride-console/internal/domain/geo"
	"ride-console/internal/ports"
)

// TelemetryRepo reads the newest location_history row per driver.
type TelemetryRepo struct {
	limit int
}

// NewTelemetryRepo constructs a TelemetryRepo that rejects lookups above ports.TelemetryBatchLimit.
func NewTelemetryRepo() ports.TelemetryRepository {
	return &TelemetryRepo{limit: ports.TelemetryBatchLimit}
}

// LatestForDrivers returns the latest valid sample for each driver that has one.
func (repo *TelemetryRepo) LatestForDrivers(ctx context.Context, driverIDs []string) (map[string]geo.Sample, error) {
	if len(driverIDs) > repo.limit {
		return nil, fmt.Errorf("%w: %d ids (limit %d)", ports.ErrBatchTooLarge, len(driverIDs), repo.limit)
	}
	out := make(map[string]geo.Sample, len(driverIDs))
	if len(driverIDs) == 0 {
		return out, nil
	}

	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get transaction from context: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT DISTINCT ON (lh.driver_id)
			lh.driver_id::text,
			lh.latitude,
			lh.longitude,
			lh.heading_degrees,
			lh.recorded_at
		FROM location_history lh
		WHERE lh.driver_id::text = ANY($1)
		ORDER BY lh.driver_id, lh.recorded_at DESC
	`, driverIDs)
	if err != nil {
		return nil, fmt.Errorf("query latest telemetry: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			driverID   string
			lat, lng   float64
			heading    *float64
			recordedAt time.Time
		)
		if err := rows.Scan(&driverID, &lat, &lng, &heading, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan telemetry: %w", err)
		}

		// an unusable fix is the same as no fix
		sample, err := geo.NewSample(driverID, lat, lng, heading, recordedAt)
		if err != nil {
			continue
		}
		out[driverID] = sample
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}
