// Package quests manages rejection quests and their action logs.
//
// A quest is one user's attempt at a challenge: "collect 20 no's this
// week". Every rejection the user logs becomes an immutable ActionEvent;
// the append-only log is what the integrity scorer reads when deciding
// whether a quest is being gamed.
package quests

import (
	"context"
	"errors"
	"time"

	"github.com/rejectionhero/backend/internal/integrity"
	"github.com/rejectionhero/backend/internal/pagination"
)

// Status is the lifecycle state of a quest.
type Status string

const (
	StatusPending   Status = "pending" // created, not yet started
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

var (
	ErrQuestNotFound  = errors.New("quest not found")
	ErrNotStarted     = errors.New("quest has not been started")
	ErrAlreadyStarted = errors.New("quest already started")
	ErrQuestFinished  = errors.New("quest already finished")
	ErrInvalidGoal    = errors.New("goal count must be positive")
)

// Quest is a single user's in-progress challenge attempt.
type Quest struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"userId"`
	Title                 string     `json:"title"`
	GoalCount             int        `json:"goalCount"`
	ActionCount           int        `json:"actionCount"`
	Status                Status     `json:"status"`
	IsFlaggedAsSuspicious bool       `json:"isFlaggedAsSuspicious"`
	StartedAt             *time.Time `json:"startedAt,omitempty"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// ActionEvent is one logged occurrence of the user performing the
// monitored action. Events are append-only and never deleted; the log
// doubles as the forensic record for integrity analysis.
type ActionEvent struct {
	ID         string               `json:"id"`
	QuestID    string               `json:"questId"`
	Kind       integrity.ActionKind `json:"kind"`
	RecordedAt time.Time            `json:"recordedAt"`
}

// ListOption configures optional parameters for list queries.
type ListOption func(*listOpts)

type listOpts struct {
	cursor *pagination.Cursor
}

func applyListOpts(opts []ListOption) listOpts {
	var o listOpts
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithCursor filters results to items after the given cursor position.
func WithCursor(cursor string) ListOption {
	return func(o *listOpts) {
		c, err := pagination.Decode(cursor)
		if err == nil {
			o.cursor = c
		}
	}
}

// Store persists quests and their action logs. It also satisfies the
// integrity package's QuestReader, ActionLogReader, and HistoryReader.
type Store interface {
	Create(ctx context.Context, q *Quest) error
	Get(ctx context.Context, id string) (*Quest, error)
	Update(ctx context.Context, q *Quest) error
	ListByUser(ctx context.Context, userID string, limit int, opts ...ListOption) ([]*Quest, error)

	AppendAction(ctx context.Context, e *ActionEvent) error
	ListActions(ctx context.Context, questID string, limit int, opts ...ListOption) ([]*ActionEvent, error)

	// Integrity reader surface.
	QuestSnapshot(ctx context.Context, questID string) (*integrity.Quest, error)
	RecentActions(ctx context.Context, questID string, limit int) ([]time.Time, error)
	CountActionsSince(ctx context.Context, questID string, since time.Time) (int, error)
	CountFlaggedSince(ctx context.Context, userID string, since time.Time) (int, error)
}
