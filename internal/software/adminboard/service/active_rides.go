package service

import (
	"context"
	"fmt"

	"ride-console/internal/domain/geo"
	"ride-console/internal/domain/ride"
	"ride-console/internal/ports"
)

// GetActiveRides returns every live ride with its driver's latest telemetry attached.
// Any store failure aborts the whole aggregation; no partial list is returned.
func (service *monitorService) GetActiveRides(ctx context.Context) (ports.ActiveRidesResult, error) {
	var res ports.ActiveRidesResult

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// one query per live status; status is not a single indexed set
		var records []ride.Record
		for _, status := range ride.LiveStatuses {
			batch, err := service.rideRepo.ListByStatus(txCtx, status)
			if err != nil {
				return fmt.Errorf("list %s rides: %w", status, err)
			}
			records = append(records, batch...)
		}

		samples, err := service.lookupTelemetry(txCtx, distinctDriverIDs(records))
		if err != nil {
			return err
		}

		res.Rides = make([]ports.EnrichedRide, 0, len(records))
		for _, rec := range records {
			enriched := ports.EnrichedRide{Record: rec}
			if id := rec.DriverID(); id != "" {
				if sample, ok := samples[id]; ok {
					enriched.DriverLocation = &sample
				}
			}
			res.Rides = append(res.Rides, enriched)
		}
		res.Count = len(res.Rides)
		return nil
	})
	if err != nil {
		return ports.ActiveRidesResult{}, err
	}

	return res, nil
}

// lookupTelemetry issues one store lookup per chunk and merges the results.
func (service *monitorService) lookupTelemetry(ctx context.Context, driverIDs []string) (map[string]geo.Sample, error) {
	merged := make(map[string]geo.Sample, len(driverIDs))
	for _, chunk := range ChunkIDs(driverIDs, service.batchSize) {
		samples, err := service.telemetryRepo.LatestForDrivers(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("lookup telemetry for %d drivers: %w", len(chunk), err)
		}
		for id, sample := range samples {
			merged[id] = sample
		}
	}
	return merged, nil
}

// distinctDriverIDs returns the assigned driver ids in first-seen order.
func distinctDriverIDs(records []ride.Record) []string {
	seen := make(map[string]struct{}, len(records))
	var ids []string
	for _, rec := range records {
		id := rec.DriverID()
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ChunkIDs splits ids into consecutive slices of at most size elements.
// The chunks share ids' backing array.
func ChunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = ports.TelemetryBatchLimit
	}
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end:end])
	}
	return chunks
}
