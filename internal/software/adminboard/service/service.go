package service

import (
	"ride-console/internal/ports"
)

// monitorService encapsulates the live ride aggregation logic and its dependencies.
type monitorService struct {
	uow           ports.UnitOfWork
	rideRepo      ports.RideRepository
	telemetryRepo ports.TelemetryRepository
	batchSize     int
}

// NewMonitorService creates a new MonitorService. batchSize is clamped to
// (0, ports.TelemetryBatchLimit].
func NewMonitorService(
	uow ports.UnitOfWork,
	rideRepo ports.RideRepository,
	telemetryRepo ports.TelemetryRepository,
	batchSize int,
) ports.MonitorService {
	if batchSize <= 0 || batchSize > ports.TelemetryBatchLimit {
		batchSize = ports.TelemetryBatchLimit
	}
	return &monitorService{
		uow:           uow,
		rideRepo:      rideRepo,
		telemetryRepo: telemetryRepo,
		batchSize:     batchSize,
	}
}
