// Package integrity implements suspicious-activity scoring for quests.
//
// Every logged rejection is evaluated against 5 independent signals:
// short-window bursts, sustained rate, tight inter-action intervals,
// unrealistically fast completion, and repeat-offender history. Scores
// range from 0 (clean) to 100 (certainly gamed). Flagging is transparent,
// never punitive: a verdict can mark a quest for review and surface a
// motivational nudge, but it never blocks the action being logged.
package integrity

import (
	"context"
	"time"
)

// ActionKind is the kind of action being logged against a quest.
// Current rules score all kinds identically; the distinction is carried
// for rules that may later weight "yes" answers differently.
type ActionKind string

const (
	ActionNo      ActionKind = "no"
	ActionYes     ActionKind = "yes"
	ActionGeneric ActionKind = "action"
)

// FlagThreshold is the aggregate score at which a verdict always flags.
const FlagThreshold = 50

// Quest is the read-only snapshot of a quest the scorer needs.
type Quest struct {
	ID        string
	UserID    string
	StartedAt *time.Time // nil means the quest was never started
	GoalCount int
}

// Inputs carries everything the scoring rules read, gathered up front so
// Evaluate stays a pure function.
type Inputs struct {
	Quest *Quest // nil when the quest could not be found

	Kind         ActionKind
	CurrentCount int // actions recorded before this one

	// RecentActionTimes are the newest action timestamps for the quest,
	// newest first, at most 5.
	RecentActionTimes []time.Time

	// ActionsLast5Min counts actions logged in the trailing 5 minutes,
	// not including the action being evaluated.
	ActionsLast5Min int

	// FlaggedLast30Days counts the user's quests flagged suspicious in
	// the trailing 30 days.
	FlaggedLast30Days int
}

// Verdict is the scorer's complete output for one logged action.
type Verdict struct {
	ID           string    `json:"id"`
	QuestID      string    `json:"questId"`
	UserID       string    `json:"userId"`
	IsSuspicious bool      `json:"isSuspicious"`
	Score        float64   `json:"score"`
	Reasons      []string  `json:"reasons,omitempty"`
	ShouldFlag   bool      `json:"shouldFlag"`
	Message      string    `json:"message,omitempty"`
	EvaluatedAt  time.Time `json:"evaluatedAt"`
}

// QuestReader supplies the quest snapshot under evaluation. A missing
// quest is reported as (nil, nil), not an error: absence is an expected
// precondition miss, not a storage failure.
type QuestReader interface {
	QuestSnapshot(ctx context.Context, questID string) (*Quest, error)
}

// ActionLogReader supplies recent action history for a quest.
type ActionLogReader interface {
	RecentActions(ctx context.Context, questID string, limit int) ([]time.Time, error)
	CountActionsSince(ctx context.Context, questID string, since time.Time) (int, error)
}

// HistoryReader supplies the user's flagged-quest history.
type HistoryReader interface {
	CountFlaggedSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Store persists verdicts for the audit trail.
type Store interface {
	Record(ctx context.Context, v *Verdict) error
	ListByQuest(ctx context.Context, questID string, limit int) ([]*Verdict, error)
}
