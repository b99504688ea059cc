// Package leaderboard keeps weekly standings of rejection activity.
//
// Each entry is one (week, user) row. Points accrue as players log
// actions and complete quests. A background worker nudges players who
// have fallen far behind the pack mid-week.
package leaderboard

import (
	"context"
	"errors"
	"time"
)

const (
	// PointsPerAction and PointsPerCompletion weight the score.
	PointsPerAction     = 1
	PointsPerCompletion = 10
)

// ErrEntryNotFound is returned when a user has no entry for the period.
var ErrEntryNotFound = errors.New("leaderboard entry not found")

// Entry is one user's standing for one weekly period.
type Entry struct {
	PeriodStart     time.Time  `json:"period_start"`
	UserID          string     `json:"user_id"`
	QuestsCompleted int        `json:"quests_completed"`
	ActionsLogged   int        `json:"actions_logged"`
	Points          int        `json:"points"`
	NotifiedAt      *time.Time `json:"-"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Store persists leaderboard entries.
type Store interface {
	Get(ctx context.Context, period time.Time, userID string) (*Entry, error)
	Upsert(ctx context.Context, e *Entry) error
	// Top returns the highest-scoring entries for the period, points descending.
	Top(ctx context.Context, period time.Time, limit int) ([]*Entry, error)
	// ListPeriod returns all entries for the period.
	ListPeriod(ctx context.Context, period time.Time) ([]*Entry, error)
}

// PeriodStart truncates t to the start of its leaderboard week
// (Monday 00:00 UTC).
func PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	// Weekday()==Monday is 1; shift Sunday (0) back 6 days.
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
