package confidence

import (
	"context"
	"log/slog"
	"time"

	"github.com/rejectionhero/backend/internal/metrics"
)

// Notifier delivers the low-confidence nudge.
type Notifier interface {
	ConfidenceLow(userID string, level float64)
}

// Worker periodically decays idle confidence meters.
type Worker struct {
	store       Store
	notifier    Notifier
	interval    time.Duration
	decayPerDay float64
	logger      *slog.Logger
	clock       func() time.Time
	stop        chan struct{}
}

// NewWorker creates a decay worker.
// interval is typically 1 hour in production, seconds in tests.
func NewWorker(store Store, notifier Notifier, interval time.Duration, decayPerDay float64, logger *slog.Logger) *Worker {
	return &Worker{
		store:       store,
		notifier:    notifier,
		interval:    interval,
		decayPerDay: decayPerDay,
		logger:      logger,
		clock:       time.Now,
		stop:        make(chan struct{}),
	}
}

// WithClock overrides the time source. Used in tests.
func (w *Worker) WithClock(clock func() time.Time) *Worker {
	w.clock = clock
	return w
}

// Start begins the decay loop. Call in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on start
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Stop signals the worker to stop.
func (w *Worker) Stop() {
	select {
	case w.stop <- struct{}{}:
	default:
	}
}

// Sweep applies decay to every idle meter and nudges players who crossed
// below the warn threshold since their last activity.
func (w *Worker) Sweep(ctx context.Context) {
	now := w.clock()
	metrics.ConfidenceDecayRunsTotal.Inc()

	idle, err := w.store.ListIdleSince(ctx, now.Add(-idleGrace))
	if err != nil {
		w.logger.Warn("confidence sweep failed to list meters", "error", err)
		return
	}

	var decayed int
	for _, m := range idle {
		changed, crossedLow := ApplyDecay(m, now, w.decayPerDay)
		if !changed {
			continue
		}

		if crossedLow && w.notifier != nil && m.LowNotifiedAt == nil {
			w.notifier.ConfidenceLow(m.UserID, m.Level)
			m.LowNotifiedAt = &now
		}

		if err := w.store.Upsert(ctx, m); err != nil {
			w.logger.Warn("confidence sweep failed to save meter", "user_id", m.UserID, "error", err)
			continue
		}
		decayed++
	}

	if decayed > 0 {
		w.logger.Info("confidence decay sweep completed", "decayed", decayed)
	}
}
