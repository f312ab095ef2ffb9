package storage

import (
	"context"
	"sync"

	"github.com/example/ride-tracking/internal/models"
)

// LookupStore keeps the history of accepted ride lookups.
type LookupStore interface {
	Record(ctx context.Context, l models.Lookup) error
	History(ctx context.Context, rideID string, limit int) ([]models.Lookup, error)
}

// DefaultHistoryLimit bounds History when the caller passes limit <= 0.
const DefaultHistoryLimit = 50

type MemoryStore struct {
	mu      sync.RWMutex
	lookups map[string][]models.Lookup
	max     int
}

// NewMemoryStore keeps at most max lookups per ride (0 means DefaultHistoryLimit).
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = DefaultHistoryLimit
	}
	return &MemoryStore{lookups: make(map[string][]models.Lookup), max: max}
}

func (m *MemoryStore) Record(_ context.Context, l models.Lookup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := append(m.lookups[l.RideID], l)
	if len(h) > m.max {
		h = h[len(h)-m.max:]
	}
	m.lookups[l.RideID] = h
	return nil
}

// History returns the newest lookups first.
func (m *MemoryStore) History(_ context.Context, rideID string, limit int) ([]models.Lookup, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.lookups[rideID]
	out := make([]models.Lookup, 0, min(limit, len(h)))
	for i := len(h) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h[i])
	}
	return out, nil
}
