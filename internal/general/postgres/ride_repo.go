package postgres

import (
	"context"
	"fmt"

	"ride-console/internal/domain/ride"
	"ride-console/internal/ports"
)

// RideRepo reads live rides using pgx and plain SQL.
type RideRepo struct{}

// NewRideRepo constructs a new RideRepo.
func NewRideRepo() ports.RideRepository {
	return &RideRepo{}
}

// listByStatusSQL hydrates one status bucket. Endpoints live in `coordinates`,
// passenger and driver summaries in `users`; all joins are optional.
const listByStatusSQL = `
	SELECT
		r.id::text,
		r.status,
		r.ride_type,
		r.ride_class,
		pc.latitude, pc.longitude, pc.address,
		dc.latitude, dc.longitude, dc.address,
		r.stops,
		p.name, p.phone,
		r.driver_id::text, d.name, d.phone,
		r.price,
		r.distance_text,
		r.duration_text,
		r.payment_method,
		r.created_at,
		r.updated_at
	FROM rides r
	LEFT JOIN coordinates pc ON pc.id = r.pickup_coordinate_id
	LEFT JOIN coordinates dc ON dc.id = r.destination_coordinate_id
	LEFT JOIN users p ON p.id = r.passenger_id
	LEFT JOIN users d ON d.id = r.driver_id
	WHERE r.status = $1
	ORDER BY r.created_at DESC
`

// ListByStatus returns all rides in the given status, normalized at this boundary.
func (repo *RideRepo) ListByStatus(ctx context.Context, status ride.Status) ([]ride.Record, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get transaction from context: %w", err)
	}

	rows, err := tx.Query(ctx, listByStatusSQL, status.String())
	if err != nil {
		return nil, fmt.Errorf("query rides by status %s: %w", status, err)
	}
	defer rows.Close()

	var out []ride.Record
	for rows.Next() {
		var raw ride.Raw
		err := rows.Scan(
			&raw.ID, &raw.Status, &raw.Kind, &raw.Class,
			&raw.PickupLat, &raw.PickupLon, &raw.PickupAddress,
			&raw.DestinationLat, &raw.DestinationLon, &raw.DestinationAddress,
			&raw.Stops,
			&raw.PassengerName, &raw.PassengerPhone,
			&raw.DriverID, &raw.DriverName, &raw.DriverPhone,
			&raw.Price, &raw.Distance, &raw.Duration, &raw.PaymentMethod,
			&raw.CreatedAt, &raw.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		out = append(out, ride.Normalize(raw))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}
