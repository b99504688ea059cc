package confidence

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service owns reads and activity-driven gains on the meter.
// Decay is applied separately by the Worker.
type Service struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time
}

// NewService creates a confidence service.
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

// Get returns the meter for a user, creating a default one on first read.
func (s *Service) Get(ctx context.Context, userID string) (*Meter, error) {
	m, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrMeterNotFound) {
		now := s.clock()
		m = &Meter{
			UserID:         userID,
			Level:          DefaultLevel,
			LastActivityAt: now,
			LastDecayAt:    now,
			UpdatedAt:      now,
		}
		if err := s.store.Upsert(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}
	return m, err
}

// RecordActivity bumps the meter for a logged action. Best-effort: failures
// are logged, never propagated, so meter trouble cannot fail a quest action.
func (s *Service) RecordActivity(ctx context.Context, userID string, at time.Time) {
	m, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("confidence activity lookup failed", "user_id", userID, "error", err)
		return
	}

	m.Level += GainPerAction
	if m.Level > MaxLevel {
		m.Level = MaxLevel
	}
	m.LastActivityAt = at
	if at.After(m.LastDecayAt) {
		m.LastDecayAt = at
	}
	// Back above the threshold: the next dip should nudge again.
	if m.Level >= WarnThreshold {
		m.LowNotifiedAt = nil
	}
	m.UpdatedAt = s.clock()

	if err := s.store.Upsert(ctx, m); err != nil {
		s.logger.Warn("confidence activity save failed", "user_id", userID, "error", err)
	}
}
