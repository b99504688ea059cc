package confidence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed meter store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Meter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, level, last_activity_at, last_decay_at, low_notified_at, updated_at
		FROM confidence_meters
		WHERE user_id = $1
	`, userID)

	var m Meter
	var lowNotified sql.NullTime
	err := row.Scan(&m.UserID, &m.Level, &m.LastActivityAt, &m.LastDecayAt, &lowNotified, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMeterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get confidence meter: %w", err)
	}
	if lowNotified.Valid {
		t := lowNotified.Time
		m.LowNotifiedAt = &t
	}
	return &m, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, m *Meter) error {
	var lowNotified sql.NullTime
	if m.LowNotifiedAt != nil {
		lowNotified = sql.NullTime{Time: *m.LowNotifiedAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confidence_meters (user_id, level, last_activity_at, last_decay_at, low_notified_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			level = EXCLUDED.level,
			last_activity_at = EXCLUDED.last_activity_at,
			last_decay_at = EXCLUDED.last_decay_at,
			low_notified_at = EXCLUDED.low_notified_at,
			updated_at = EXCLUDED.updated_at
	`, m.UserID, m.Level, m.LastActivityAt, m.LastDecayAt, lowNotified, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert confidence meter: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListIdleSince(ctx context.Context, cutoff time.Time) ([]*Meter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, level, last_activity_at, last_decay_at, low_notified_at, updated_at
		FROM confidence_meters
		WHERE last_activity_at < $1
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list idle meters: %w", err)
	}
	defer rows.Close()

	var out []*Meter
	for rows.Next() {
		var m Meter
		var lowNotified sql.NullTime
		if err := rows.Scan(&m.UserID, &m.Level, &m.LastActivityAt, &m.LastDecayAt, &lowNotified, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan confidence meter: %w", err)
		}
		if lowNotified.Valid {
			t := lowNotified.Time
			m.LowNotifiedAt = &t
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
