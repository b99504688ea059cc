package leaderboard

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service records activity into weekly standings and serves reads.
// Recording methods are best-effort: failures are logged, never returned,
// so standings trouble cannot fail a quest action.
type Service struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time
}

// NewService creates a leaderboard service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		clock:  time.Now,
	}
}

// WithClock overrides the time source. Used in tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// RecordAction credits a logged action to the current week.
func (s *Service) RecordAction(ctx context.Context, userID string) {
	s.bump(ctx, userID, func(e *Entry) {
		e.ActionsLogged++
	})
}

// RecordCompletion credits a completed quest to the current week.
func (s *Service) RecordCompletion(ctx context.Context, userID string) {
	s.bump(ctx, userID, func(e *Entry) {
		e.QuestsCompleted++
	})
}

func (s *Service) bump(ctx context.Context, userID string, apply func(*Entry)) {
	now := s.clock()
	period := PeriodStart(now)

	e, err := s.store.Get(ctx, period, userID)
	if errors.Is(err, ErrEntryNotFound) {
		e = &Entry{PeriodStart: period, UserID: userID}
	} else if err != nil {
		s.logger.Warn("leaderboard lookup failed", "user_id", userID, "error", err)
		return
	}

	apply(e)
	e.Points = e.ActionsLogged*PointsPerAction + e.QuestsCompleted*PointsPerCompletion
	e.UpdatedAt = now

	if err := s.store.Upsert(ctx, e); err != nil {
		s.logger.Warn("leaderboard save failed", "user_id", userID, "error", err)
	}
}

// Top returns the current week's highest-scoring entries.
func (s *Service) Top(ctx context.Context, limit int) ([]*Entry, error) {
	return s.store.Top(ctx, PeriodStart(s.clock()), limit)
}

// Rank returns a user's 1-based rank in the current week and their entry.
// Users with no entry this week get ErrEntryNotFound.
func (s *Service) Rank(ctx context.Context, userID string) (int, *Entry, error) {
	period := PeriodStart(s.clock())
	all, err := s.store.ListPeriod(ctx, period)
	if err != nil {
		return 0, nil, err
	}
	for i, e := range all {
		if e.UserID == userID {
			return i + 1, e, nil
		}
	}
	return 0, nil, ErrEntryNotFound
}
