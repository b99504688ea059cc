package quests

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rejectionhero/backend/internal/integrity"
)

// PostgresStore persists quests and action logs in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed quest store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, q *Quest) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO quests (
			id, user_id, title, goal_count, action_count, status,
			is_flagged_as_suspicious, started_at, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		q.ID, q.UserID, q.Title, q.GoalCount, q.ActionCount, string(q.Status),
		q.IsFlaggedAsSuspicious, q.StartedAt, q.CompletedAt, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create quest: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Quest, error) {
	q, err := scanQuest(p.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, goal_count, action_count, status,
		       is_flagged_as_suspicious, started_at, completed_at, created_at, updated_at
		FROM quests WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrQuestNotFound
	}
	return q, err
}

func (p *PostgresStore) Update(ctx context.Context, q *Quest) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE quests SET
			action_count = $1, status = $2, is_flagged_as_suspicious = $3,
			started_at = $4, completed_at = $5, updated_at = $6
		WHERE id = $7`,
		q.ActionCount, string(q.Status), q.IsFlaggedAsSuspicious,
		q.StartedAt, q.CompletedAt, q.UpdatedAt, q.ID,
	)
	if err != nil {
		return fmt.Errorf("update quest: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update quest: %w", err)
	}
	if n == 0 {
		return ErrQuestNotFound
	}
	return nil
}

func (p *PostgresStore) ListByUser(ctx context.Context, userID string, limit int, opts ...ListOption) ([]*Quest, error) {
	o := applyListOpts(opts)

	query := `
		SELECT id, user_id, title, goal_count, action_count, status,
		       is_flagged_as_suspicious, started_at, completed_at, created_at, updated_at
		FROM quests WHERE user_id = $1`
	args := []any{userID}
	if o.cursor != nil {
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, o.cursor.CreatedAt, o.cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

func (p *PostgresStore) AppendAction(ctx context.Context, e *ActionEvent) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO quest_actions (id, quest_id, kind, recorded_at)
		VALUES ($1, $2, $3, $4)`,
		e.ID, e.QuestID, string(e.Kind), e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListActions(ctx context.Context, questID string, limit int, opts ...ListOption) ([]*ActionEvent, error) {
	o := applyListOpts(opts)

	query := `
		SELECT id, quest_id, kind, recorded_at
		FROM quest_actions WHERE quest_id = $1`
	args := []any{questID}
	if o.cursor != nil {
		query += ` AND (recorded_at, id) < ($2, $3)`
		args = append(args, o.cursor.CreatedAt, o.cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY recorded_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*ActionEvent
	for rows.Next() {
		var e ActionEvent
		var kind string
		if err := rows.Scan(&e.ID, &e.QuestID, &kind, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		e.Kind = integrity.ActionKind(kind)
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (p *PostgresStore) QuestSnapshot(ctx context.Context, questID string) (*integrity.Quest, error) {
	var snap integrity.Quest
	var startedAt sql.NullTime
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, goal_count, started_at
		FROM quests WHERE id = $1`, questID,
	).Scan(&snap.ID, &snap.UserID, &snap.GoalCount, &startedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("quest snapshot: %w", err)
	}
	if startedAt.Valid {
		t := startedAt.Time
		snap.StartedAt = &t
	}
	return &snap, nil
}

func (p *PostgresStore) RecentActions(ctx context.Context, questID string, limit int) ([]time.Time, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT recorded_at FROM quest_actions
		WHERE quest_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`, questID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan recorded_at: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (p *PostgresStore) CountActionsSince(ctx context.Context, questID string, since time.Time) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM quest_actions
		WHERE quest_id = $1 AND recorded_at > $2`, questID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return count, nil
}

func (p *PostgresStore) CountFlaggedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM quests
		WHERE user_id = $1 AND is_flagged_as_suspicious AND created_at > $2`, userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count flagged: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuest(row rowScanner) (*Quest, error) {
	var q Quest
	var status string
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(
		&q.ID, &q.UserID, &q.Title, &q.GoalCount, &q.ActionCount, &status,
		&q.IsFlaggedAsSuspicious, &startedAt, &completedAt, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	q.Status = Status(status)
	if startedAt.Valid {
		t := startedAt.Time
		q.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		q.CompletedAt = &t
	}
	return &q, nil
}
