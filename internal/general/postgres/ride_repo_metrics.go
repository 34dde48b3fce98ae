package postgres

import (
	"context"

	"ride-console/internal/domain/ride"
)

// CountByStatus returns the number of rides currently in status.
func (repo *RideRepo) CountByStatus(ctx context.Context, status ride.Status) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM rides
		WHERE status = $1
	`, status.String()).Scan(&n)
	if err != nil {
		return 0, err
	}

	return n, nil
}
