package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rejectionhero/backend/internal/idgen"
	"github.com/rejectionhero/backend/internal/metrics"
)

// Emitter builds notifications for app events and hands them to a Sender.
// All methods are fire-and-forget: errors are logged but never returned,
// so a dead push gateway can never fail a quest action.
type Emitter struct {
	sender Sender
	logger *slog.Logger
}

// NewEmitter creates a new notification emitter.
func NewEmitter(sender Sender, logger *slog.Logger) *Emitter {
	return &Emitter{sender: sender, logger: logger}
}

func (e *Emitter) emit(userID string, typ Type, title, body string, data map[string]interface{}) {
	if e == nil || e.sender == nil {
		return
	}
	n := &Notification{
		ID:        idgen.WithPrefix("ntf_"),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.sender.Send(ctx, n); err != nil {
			metrics.NotificationsTotal.WithLabelValues("error").Inc()
			e.logger.Warn("notification delivery failed", "type", typ, "user_id", userID, "error", err)
			return
		}
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	}()
}

// QuestCompleted congratulates a player on finishing a quest.
func (e *Emitter) QuestCompleted(userID, questID, title string) {
	e.emit(userID, TypeQuestCompleted,
		"Quest complete!",
		fmt.Sprintf("You finished %q. Every no makes you stronger.", title),
		map[string]interface{}{"quest_id": questID},
	)
}

// QuestFlagged tells a player their quest was flagged for review.
func (e *Emitter) QuestFlagged(userID, questID, message string) {
	e.emit(userID, TypeQuestFlagged,
		"Quest under review",
		message,
		map[string]interface{}{"quest_id": questID},
	)
}

// ConfidenceLow nudges a player whose confidence meter has decayed.
func (e *Emitter) ConfidenceLow(userID string, level float64) {
	e.emit(userID, TypeConfidenceLow,
		"Your confidence is slipping",
		"It's been a while. One small ask today brings it back.",
		map[string]interface{}{"level": level},
	)
}

// FallBehind tells a player they dropped behind on the weekly leaderboard.
func (e *Emitter) FallBehind(userID string, rank int, gap int) {
	e.emit(userID, TypeFallBehind,
		"You're falling behind",
		fmt.Sprintf("You're %d rejections behind the leaders this week.", gap),
		map[string]interface{}{"rank": rank, "gap": gap},
	)
}
