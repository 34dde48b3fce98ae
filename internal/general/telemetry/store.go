package telemetry

import (
	"context"
	"fmt"
	"sync"

	"ride-console/internal/domain/geo"
	"ride-console/internal/ports"
)

// MemoryStore keeps the newest sample per driver. It serves the same lookup contract
// as the postgres telemetry repository, batch limit included.
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[string]geo.Sample
	limit  int
}

var _ ports.TelemetryRepository = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store enforcing ports.TelemetryBatchLimit.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[string]geo.Sample), limit: ports.TelemetryBatchLimit}
}

// Put records s unless a newer sample for the same driver is already held.
// It reports whether s was stored.
func (store *MemoryStore) Put(s geo.Sample) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if cur, ok := store.latest[s.DriverID]; ok && !s.Timestamp.After(cur.Timestamp) {
		return false
	}
	store.latest[s.DriverID] = s
	return true
}

// Len returns the number of drivers with a sample.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.latest)
}

// LatestForDrivers returns the held sample for each id that has one.
func (store *MemoryStore) LatestForDrivers(_ context.Context, driverIDs []string) (map[string]geo.Sample, error) {
	if len(driverIDs) > store.limit {
		return nil, fmt.Errorf("%d ids: %w", len(driverIDs), ports.ErrBatchTooLarge)
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	out := make(map[string]geo.Sample, len(driverIDs))
	for _, id := range driverIDs {
		if s, ok := store.latest[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}
