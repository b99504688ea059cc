package integrity

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	verdicts map[string][]*Verdict // questID → verdicts, oldest first
}

// NewMemoryStore creates an in-memory verdict store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		verdicts: make(map[string][]*Verdict),
	}
}

func (s *MemoryStore) Record(ctx context.Context, v *Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *v
	cp.Reasons = append([]string(nil), v.Reasons...)
	s.verdicts[v.QuestID] = append(s.verdicts[v.QuestID], &cp)
	return nil
}

func (s *MemoryStore) ListByQuest(ctx context.Context, questID string, limit int) ([]*Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.verdicts[questID]
	if len(all) == 0 {
		return nil, nil
	}

	start := len(all) - limit
	if start < 0 {
		start = 0
	}

	// Newest first.
	result := make([]*Verdict, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		cp := *all[i]
		cp.Reasons = append([]string(nil), all[i].Reasons...)
		result = append(result, &cp)
	}
	return result, nil
}
