package service

import (
	"context"
	"time"

	"ride-console/internal/domain/ride"
	"ride-console/internal/ports"
)

// GetSummary counts live rides per status for the summary counters.
func (service *monitorService) GetSummary(ctx context.Context) (ports.SummaryResult, error) {
	res := ports.SummaryResult{Timestamp: time.Now().UTC()}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		for _, status := range ride.LiveStatuses {
			n, err := service.rideRepo.CountByStatus(txCtx, status)
			if err != nil {
				return err
			}
			switch status {
			case ride.StatusConfirmed:
				res.Confirmed = n
			case ride.StatusArrived:
				res.Arrived = n
			case ride.StatusInProgress:
				res.InProgress = n
			}
			res.Total += n
		}
		return nil
	})
	if err != nil {
		return ports.SummaryResult{}, err
	}

	return res, nil
}
