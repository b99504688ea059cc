package leaderboard

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

// NewPostgresStore creates a Postgres-backed leaderboard store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `period_start, user_id, quests_completed, actions_logged, points, notified_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, period time.Time, userID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM leaderboard_entries
		WHERE period_start = $1 AND user_id = $2
	`, period.UTC(), userID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get leaderboard entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, e *Entry) error {
	var notified sql.NullTime
	if e.NotifiedAt != nil {
		notified = sql.NullTime{Time: *e.NotifiedAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard_entries (period_start, user_id, quests_completed, actions_logged, points, notified_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (period_start, user_id) DO UPDATE SET
			quests_completed = EXCLUDED.quests_completed,
			actions_logged = EXCLUDED.actions_logged,
			points = EXCLUDED.points,
			notified_at = EXCLUDED.notified_at,
			updated_at = EXCLUDED.updated_at
	`, e.PeriodStart.UTC(), e.UserID, e.QuestsCompleted, e.ActionsLogged, e.Points, notified, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Top(ctx context.Context, period time.Time, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM leaderboard_entries
		WHERE period_start = $1
		ORDER BY points DESC, user_id ASC
		LIMIT $2
	`, period.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("top leaderboard entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (s *PostgresStore) ListPeriod(ctx context.Context, period time.Time) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM leaderboard_entries
		WHERE period_start = $1
		ORDER BY points DESC, user_id ASC
	`, period.UTC())
	if err != nil {
		return nil, fmt.Errorf("list leaderboard entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var notified sql.NullTime
	if err := row.Scan(&e.PeriodStart, &e.UserID, &e.QuestsCompleted, &e.ActionsLogged, &e.Points, &notified, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if notified.Valid {
		t := notified.Time
		e.NotifiedAt = &t
	}
	return &e, nil
}

func collectEntries(rows *sql.Rows) ([]*Entry, error) {
	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
