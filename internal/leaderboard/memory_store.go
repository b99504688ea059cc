package leaderboard

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Used in tests and when no
// database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry // key: period|userID
}

// NewMemoryStore creates an in-memory leaderboard store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

func key(period time.Time, userID string) string {
	return period.UTC().Format("2006-01-02") + "|" + userID
}

func (m *MemoryStore) Get(_ context.Context, period time.Time, userID string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key(period, userID)]
	if !ok {
		return nil, ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) Upsert(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries[key(e.PeriodStart, e.UserID)] = &cp
	return nil
}

func (m *MemoryStore) Top(ctx context.Context, period time.Time, limit int) ([]*Entry, error) {
	all, err := m.ListPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) ListPeriod(_ context.Context, period time.Time) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Entry
	for _, e := range m.entries {
		if e.PeriodStart.Equal(period.UTC()) {
			cp := *e
			out = append(out, &cp)
		}
	}

	// Points descending; ties broken by user ID for stable ranks.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
