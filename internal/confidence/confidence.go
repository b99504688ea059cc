// Package confidence tracks each player's confidence meter.
//
// The meter rises when a player logs rejection attempts and decays while
// they stay idle. A background worker applies the decay and nudges
// players whose meter drops below the warn threshold.
package confidence

import (
	"context"
	"errors"
	"time"
)

const (
	// MaxLevel and MinLevel bound the meter.
	MaxLevel = 100.0
	MinLevel = 0.0

	// DefaultLevel is where a new player's meter starts.
	DefaultLevel = 50.0

	// GainPerAction is added each time the player logs an action.
	GainPerAction = 2.0

	// WarnThreshold is the level below which a low-confidence nudge is sent.
	WarnThreshold = 25.0

	// idleGrace is how long a meter may sit untouched before decay starts.
	idleGrace = 24 * time.Hour
)

// ErrMeterNotFound is returned when no meter exists for a user.
var ErrMeterNotFound = errors.New("confidence meter not found")

// Meter is one player's confidence state.
type Meter struct {
	UserID         string     `json:"user_id"`
	Level          float64    `json:"level"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	LastDecayAt    time.Time  `json:"last_decay_at"`
	LowNotifiedAt  *time.Time `json:"low_notified_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Store persists confidence meters.
type Store interface {
	Get(ctx context.Context, userID string) (*Meter, error)
	Upsert(ctx context.Context, m *Meter) error
	// ListIdleSince returns meters whose last activity is before the cutoff.
	ListIdleSince(ctx context.Context, cutoff time.Time) ([]*Meter, error)
}
