package quests

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rejectionhero/backend/internal/idgen"
	"github.com/rejectionhero/backend/internal/integrity"
	"github.com/rejectionhero/backend/internal/metrics"
	"github.com/rejectionhero/backend/internal/syncutil"
)

// Notifier publishes push notifications about quest milestones.
// Implementations must be fire-and-forget; the service never checks
// delivery.
type Notifier interface {
	QuestCompleted(userID, questID, title string)
	QuestFlagged(userID, questID, message string)
}

// Events receives real-time quest activity for live feeds.
type Events interface {
	ActionLogged(questID, userID string, actionCount, goalCount int)
	QuestCompleted(questID, userID string)
	QuestFlagged(questID, userID string, score float64)
}

// ActivitySink is told about user activity so engagement state (the
// confidence meter) can be updated outside this package.
type ActivitySink interface {
	RecordActivity(ctx context.Context, userID string, at time.Time)
}

// Service owns quest lifecycle and the record-action path.
type Service struct {
	store    Store
	checker  *integrity.Checker
	verdicts integrity.Store
	notifier Notifier
	events   Events
	activity ActivitySink
	locks    *syncutil.KeyedLock
	clock    func() time.Time
	logger   *slog.Logger
}

// NewService creates a quest service. checker and verdicts may be nil in
// tests that exercise lifecycle only.
func NewService(store Store, checker *integrity.Checker, verdicts integrity.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		checker:  checker,
		verdicts: verdicts,
		locks:    syncutil.NewKeyedLock(),
		clock:    time.Now,
		logger:   logger,
	}
}

// WithNotifier sets the push notification sink.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithEvents sets the real-time event sink.
func (s *Service) WithEvents(e Events) *Service {
	s.events = e
	return s
}

// WithActivitySink sets the engagement activity sink.
func (s *Service) WithActivitySink(a ActivitySink) *Service {
	s.activity = a
	return s
}

// WithClock overrides the time source (for tests).
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Create registers a new quest in the pending state.
func (s *Service) Create(ctx context.Context, userID, title string, goalCount int) (*Quest, error) {
	if goalCount <= 0 {
		return nil, ErrInvalidGoal
	}

	now := s.clock()
	q := &Quest{
		ID:        idgen.WithPrefix("qst_"),
		UserID:    userID,
		Title:     title,
		GoalCount: goalCount,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create quest: %w", err)
	}
	metrics.QuestsCreatedTotal.Inc()
	return q, nil
}

// Start marks a pending quest as active. The start timestamp is the
// reference every integrity rule measures elapsed time against.
func (s *Service) Start(ctx context.Context, questID string) (*Quest, error) {
	release, err := s.locks.Acquire(ctx, questID)
	if err != nil {
		return nil, err
	}
	defer release()

	q, err := s.store.Get(ctx, questID)
	if err != nil {
		return nil, err
	}
	if q.StartedAt != nil {
		return nil, ErrAlreadyStarted
	}

	now := s.clock()
	q.StartedAt = &now
	q.Status = StatusActive
	q.UpdatedAt = now
	if err := s.store.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("start quest: %w", err)
	}
	return q, nil
}

// Abandon terminates an unfinished quest.
func (s *Service) Abandon(ctx context.Context, questID string) (*Quest, error) {
	release, err := s.locks.Acquire(ctx, questID)
	if err != nil {
		return nil, err
	}
	defer release()

	q, err := s.store.Get(ctx, questID)
	if err != nil {
		return nil, err
	}
	if q.Status == StatusCompleted || q.Status == StatusAbandoned {
		return nil, ErrQuestFinished
	}

	q.Status = StatusAbandoned
	q.UpdatedAt = s.clock()
	if err := s.store.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("abandon quest: %w", err)
	}
	return q, nil
}

// Get returns a quest by ID.
func (s *Service) Get(ctx context.Context, questID string) (*Quest, error) {
	return s.store.Get(ctx, questID)
}

// ListByUser returns a user's quests, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int, opts ...ListOption) ([]*Quest, error) {
	return s.store.ListByUser(ctx, userID, limit, opts...)
}

// ListActions returns a quest's action log, newest first.
func (s *Service) ListActions(ctx context.Context, questID string, limit int, opts ...ListOption) ([]*ActionEvent, error) {
	return s.store.ListActions(ctx, questID, limit, opts...)
}

// ListVerdicts returns the integrity audit trail for a quest.
func (s *Service) ListVerdicts(ctx context.Context, questID string, limit int) ([]*integrity.Verdict, error) {
	if s.verdicts == nil {
		return nil, nil
	}
	return s.verdicts.ListByQuest(ctx, questID, limit)
}

// RecordAction logs one action against an active quest, runs the
// integrity check inline, and returns the updated quest together with
// the verdict. The integrity path can flag the quest and surface a
// motivational message, but it can never fail the action: any scoring
// problem degrades to an inert verdict.
func (s *Service) RecordAction(ctx context.Context, questID string, kind integrity.ActionKind) (*Quest, integrity.Verdict, error) {
	// Serialize per quest: the count update below is read-modify-write.
	release, err := s.locks.Acquire(ctx, questID)
	if err != nil {
		return nil, integrity.Verdict{}, err
	}
	defer release()

	q, err := s.store.Get(ctx, questID)
	if err != nil {
		return nil, integrity.Verdict{}, err
	}
	if q.StartedAt == nil {
		return nil, integrity.Verdict{}, ErrNotStarted
	}
	if q.Status == StatusCompleted || q.Status == StatusAbandoned {
		return nil, integrity.Verdict{}, ErrQuestFinished
	}

	now := s.clock()
	currentCount := q.ActionCount

	// The integrity check reads the log as it stood before this action;
	// the action itself is accounted for as currentCount + 1 inside the
	// scorer.
	var verdict integrity.Verdict
	if s.checker != nil {
		verdict = s.checker.Check(ctx, questID, q.UserID, kind, currentCount)
	}

	event := &ActionEvent{
		ID:         idgen.WithPrefix("act_"),
		QuestID:    questID,
		Kind:       kind,
		RecordedAt: now,
	}
	if err := s.store.AppendAction(ctx, event); err != nil {
		return nil, integrity.Verdict{}, fmt.Errorf("append action: %w", err)
	}
	metrics.ActionsRecordedTotal.WithLabelValues(string(kind)).Inc()

	q.ActionCount = currentCount + 1
	q.UpdatedAt = now
	if verdict.ShouldFlag && !q.IsFlaggedAsSuspicious {
		q.IsFlaggedAsSuspicious = true
		metrics.QuestsFlaggedTotal.Inc()
	}

	completed := q.ActionCount >= q.GoalCount && q.Status != StatusCompleted
	if completed {
		q.Status = StatusCompleted
		q.CompletedAt = &now
		metrics.QuestsCompletedTotal.Inc()
	}

	if err := s.store.Update(ctx, q); err != nil {
		return nil, integrity.Verdict{}, fmt.Errorf("update quest: %w", err)
	}

	s.recordVerdict(ctx, &verdict)
	s.emit(ctx, q, verdict, completed)

	if s.activity != nil {
		s.activity.RecordActivity(ctx, q.UserID, now)
	}

	return q, verdict, nil
}

// recordVerdict persists the verdict for the audit trail. Best effort:
// a failed write is logged, never surfaced.
func (s *Service) recordVerdict(ctx context.Context, v *integrity.Verdict) {
	if s.verdicts == nil || v.ID == "" {
		return
	}
	outcome := "clean"
	if v.ShouldFlag {
		outcome = "flagged"
	} else if v.IsSuspicious {
		outcome = "suspicious"
	}
	metrics.IntegrityVerdictsTotal.WithLabelValues(outcome).Inc()

	if err := s.verdicts.Record(ctx, v); err != nil {
		s.logger.Warn("failed to record integrity verdict",
			"quest_id", v.QuestID, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, q *Quest, v integrity.Verdict, completed bool) {
	if s.events != nil {
		s.events.ActionLogged(q.ID, q.UserID, q.ActionCount, q.GoalCount)
		if v.ShouldFlag {
			s.events.QuestFlagged(q.ID, q.UserID, v.Score)
		}
		if completed {
			s.events.QuestCompleted(q.ID, q.UserID)
		}
	}
	if s.notifier != nil {
		if v.ShouldFlag && v.Message != "" {
			s.notifier.QuestFlagged(q.UserID, q.ID, v.Message)
		}
		if completed {
			s.notifier.QuestCompleted(q.UserID, q.ID, q.Title)
		}
	}
}
