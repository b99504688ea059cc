package integrity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresStore persists verdicts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed verdict store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, v *Verdict) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO integrity_verdicts (
			id, quest_id, user_id, is_suspicious, score,
			reasons, should_flag, message, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		v.ID, v.QuestID, v.UserID, v.IsSuspicious, v.Score,
		pq.Array(v.Reasons), v.ShouldFlag, v.Message, v.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByQuest(ctx context.Context, questID string, limit int) ([]*Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, quest_id, user_id, is_suspicious, score,
		       reasons, should_flag, message, evaluated_at
		FROM integrity_verdicts
		WHERE quest_id = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`, questID, limit)
	if err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Verdict
	for rows.Next() {
		var v Verdict
		var evaluatedAt time.Time
		if err := rows.Scan(
			&v.ID, &v.QuestID, &v.UserID, &v.IsSuspicious, &v.Score,
			pq.Array(&v.Reasons), &v.ShouldFlag, &v.Message, &evaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v.EvaluatedAt = evaluatedAt
		result = append(result, &v)
	}
	return result, rows.Err()
}
