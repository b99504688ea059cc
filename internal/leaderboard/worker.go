package leaderboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/rejectionhero/backend/internal/metrics"
)

// Notifier delivers the fall-behind nudge.
type Notifier interface {
	FallBehind(userID string, rank int, gap int)
}

// Worker periodically scans the current week's standings and nudges
// players trailing the pack by more than maxGap points.
type Worker struct {
	store    Store
	notifier Notifier
	interval time.Duration
	maxGap   int
	topSize  int
	logger   *slog.Logger
	clock    func() time.Time
	stop     chan struct{}
}

// NewWorker creates a fall-behind worker.
// topSize is the rank whose points anchor the cutoff (typically 10).
func NewWorker(store Store, notifier Notifier, interval time.Duration, maxGap, topSize int, logger *slog.Logger) *Worker {
	return &Worker{
		store:    store,
		notifier: notifier,
		interval: interval,
		maxGap:   maxGap,
		topSize:  topSize,
		logger:   logger,
		clock:    time.Now,
		stop:     make(chan struct{}),
	}
}

// WithClock overrides the time source. Used in tests.
func (w *Worker) WithClock(clock func() time.Time) *Worker {
	w.clock = clock
	return w
}

// Start begins the sweep loop. Call in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

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

// Sweep notifies each trailing player at most once per period.
func (w *Worker) Sweep(ctx context.Context) {
	now := w.clock()
	period := PeriodStart(now)
	metrics.LeaderboardSweepsTotal.Inc()

	all, err := w.store.ListPeriod(ctx, period)
	if err != nil {
		w.logger.Warn("leaderboard sweep failed to list entries", "error", err)
		return
	}
	if len(all) <= w.topSize {
		// Everyone fits on the board, nobody is behind.
		return
	}

	// Cutoff is the last player still on the board.
	cutoff := all[w.topSize-1].Points

	var nudged int
	for i := w.topSize; i < len(all); i++ {
		e := all[i]
		gap := cutoff - e.Points
		if gap <= w.maxGap {
			continue
		}
		if e.NotifiedAt != nil && !e.NotifiedAt.Before(period) {
			continue // already nudged this week
		}

		if w.notifier != nil {
			w.notifier.FallBehind(e.UserID, i+1, gap)
		}
		e.NotifiedAt = &now
		e.UpdatedAt = now
		if err := w.store.Upsert(ctx, e); err != nil {
			w.logger.Warn("leaderboard sweep failed to save entry", "user_id", e.UserID, "error", err)
			continue
		}
		nudged++
	}

	if nudged > 0 {
		w.logger.Info("leaderboard fall-behind sweep completed", "nudged", nudged)
	}
}
