package integrity

import (
	"context"
	"log/slog"
	"time"

	"github.com/rejectionhero/backend/internal/idgen"
)

const (
	recentActionLimit = 5
	historyWindow     = 30 * 24 * time.Hour
)

// Clock returns the current time. Injected so verdicts are deterministic
// under test.
type Clock func() time.Time

// Checker gathers the inputs for one logged action and runs the scoring
// rules over them. All reads happen up front; Evaluate itself never
// touches storage.
type Checker struct {
	quests  QuestReader
	actions ActionLogReader
	history HistoryReader
	clock   Clock
	logger  *slog.Logger
}

// NewChecker creates an integrity checker over the given readers.
func NewChecker(quests QuestReader, actions ActionLogReader, history HistoryReader, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		quests:  quests,
		actions: actions,
		history: history,
		clock:   time.Now,
		logger:  logger,
	}
}

// WithClock overrides the time source (for tests).
func (c *Checker) WithClock(clock Clock) *Checker {
	c.clock = clock
	return c
}

// Check evaluates the action being logged against questID and returns a
// verdict. It never returns an error and never blocks the underlying
// action: any failure gathering inputs is logged and degrades to the
// inert zero verdict, same as a quest that was never started.
func (c *Checker) Check(ctx context.Context, questID, userID string, kind ActionKind, currentCount int) Verdict {
	now := c.clock()

	in, err := c.gather(ctx, questID, kind, currentCount, now)
	if err != nil {
		c.logger.Warn("integrity check degraded to inert verdict",
			"quest_id", questID,
			"user_id", userID,
			"error", err,
		)
		return Verdict{ID: idgen.WithPrefix("vr_"), QuestID: questID, UserID: userID, EvaluatedAt: now}
	}

	v := Evaluate(now, in)
	v.ID = idgen.WithPrefix("vr_")
	if v.QuestID == "" {
		v.QuestID = questID
	}
	if v.UserID == "" {
		v.UserID = userID
	}
	return v
}

// gather performs every backing-store read the rules depend on. Keeping
// them in one place gives the error-containment boundary a single seam.
func (c *Checker) gather(ctx context.Context, questID string, kind ActionKind, currentCount int, now time.Time) (Inputs, error) {
	in := Inputs{Kind: kind, CurrentCount: currentCount}

	quest, err := c.quests.QuestSnapshot(ctx, questID)
	if err != nil {
		return in, err
	}
	in.Quest = quest

	// Nothing to gather for a quest that cannot be analyzed.
	if quest == nil || quest.StartedAt == nil {
		return in, nil
	}

	in.RecentActionTimes, err = c.actions.RecentActions(ctx, questID, recentActionLimit)
	if err != nil {
		return in, err
	}

	in.ActionsLast5Min, err = c.actions.CountActionsSince(ctx, questID, now.Add(-burstWindow))
	if err != nil {
		return in, err
	}

	in.FlaggedLast30Days, err = c.history.CountFlaggedSince(ctx, quest.UserID, now.Add(-historyWindow))
	if err != nil {
		return in, err
	}

	return in, nil
}
