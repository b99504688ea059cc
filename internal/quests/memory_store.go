package quests

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rejectionhero/backend/internal/integrity"
	"github.com/rejectionhero/backend/internal/pagination"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	quests  map[string]*Quest
	actions map[string][]*ActionEvent // questID → events, oldest first
}

// NewMemoryStore creates an in-memory quest store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quests:  make(map[string]*Quest),
		actions: make(map[string][]*ActionEvent),
	}
}

func (s *MemoryStore) Create(ctx context.Context, q *Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.quests[q.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quests[id]
	if !ok {
		return nil, ErrQuestNotFound
	}
	cp := *q
	return &cp, nil
}

func (s *MemoryStore) Update(ctx context.Context, q *Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quests[q.ID]; !ok {
		return ErrQuestNotFound
	}
	cp := *q
	s.quests[q.ID] = &cp
	return nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit int, opts ...ListOption) ([]*Quest, error) {
	o := applyListOpts(opts)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Quest
	for _, q := range s.quests {
		if q.UserID != userID {
			continue
		}
		if o.cursor != nil && !beforeCursor(q.CreatedAt, q.ID, o.cursor) {
			continue
		}
		cp := *q
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) AppendAction(ctx context.Context, e *ActionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.actions[e.QuestID] = append(s.actions[e.QuestID], &cp)
	return nil
}

func (s *MemoryStore) ListActions(ctx context.Context, questID string, limit int, opts ...ListOption) ([]*ActionEvent, error) {
	o := applyListOpts(opts)

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.actions[questID]
	var result []*ActionEvent
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if o.cursor != nil && !beforeCursor(e.RecordedAt, e.ID, o.cursor) {
			continue
		}
		cp := *e
		result = append(result, &cp)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// beforeCursor mirrors the (timestamp, id) < (cursor, cursor_id) tuple
// comparison the SQL store uses, so equal timestamps page identically.
func beforeCursor(at time.Time, id string, c *pagination.Cursor) bool {
	if !at.Equal(c.CreatedAt) {
		return at.Before(c.CreatedAt)
	}
	return id < c.ID
}

func (s *MemoryStore) QuestSnapshot(ctx context.Context, questID string) (*integrity.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quests[questID]
	if !ok {
		return nil, nil
	}
	snap := &integrity.Quest{
		ID:        q.ID,
		UserID:    q.UserID,
		GoalCount: q.GoalCount,
	}
	if q.StartedAt != nil {
		t := *q.StartedAt
		snap.StartedAt = &t
	}
	return snap, nil
}

func (s *MemoryStore) RecentActions(ctx context.Context, questID string, limit int) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.actions[questID]
	var times []time.Time
	for i := len(all) - 1; i >= 0 && len(times) < limit; i-- {
		times = append(times, all[i].RecordedAt)
	}
	return times, nil
}

func (s *MemoryStore) CountActionsSince(ctx context.Context, questID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.actions[questID] {
		if e.RecordedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountFlaggedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, q := range s.quests {
		if q.UserID == userID && q.IsFlaggedAsSuspicious && q.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}
