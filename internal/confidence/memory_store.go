package confidence

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Used in tests and when no
// database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	meters map[string]*Meter
}

// NewMemoryStore creates an in-memory meter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meters: make(map[string]*Meter),
	}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meter, ok := m.meters[userID]
	if !ok {
		return nil, ErrMeterNotFound
	}
	cp := *meter
	return &cp, nil
}

func (m *MemoryStore) Upsert(_ context.Context, meter *Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *meter
	m.meters[meter.UserID] = &cp
	return nil
}

func (m *MemoryStore) ListIdleSince(_ context.Context, cutoff time.Time) ([]*Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Meter
	for _, meter := range m.meters {
		if meter.LastActivityAt.Before(cutoff) {
			cp := *meter
			out = append(out, &cp)
		}
	}
	return out, nil
}
