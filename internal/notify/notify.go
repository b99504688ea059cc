// Package notify delivers push notifications to players.
//
// Notifications are sent through an external push gateway (one HTTP hop;
// the gateway fans out to APNs/FCM). Delivery is best-effort: the app
// must keep working when the gateway is down.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Type identifies the kind of notification.
type Type string

const (
	TypeQuestCompleted Type = "quest.completed"
	TypeQuestFlagged   Type = "integrity.flagged"
	TypeConfidenceLow  Type = "confidence.low"
	TypeFallBehind     Type = "leaderboard.fall_behind"
)

// Notification is a single push message addressed to one user.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      Type                   `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Sender delivers a notification to the push gateway.
type Sender interface {
	Send(ctx context.Context, n *Notification) error
}

// MemorySender records notifications in memory. Used in tests and when
// no push gateway is configured.
type MemorySender struct {
	mu   sync.Mutex
	sent []*Notification
}

// NewMemorySender creates an in-memory sender.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

func (m *MemorySender) Send(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.sent = append(m.sent, &cp)
	return nil
}

// Sent returns a copy of all recorded notifications.
func (m *MemorySender) Sent() []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns recorded notifications for a single user.
func (m *MemorySender) SentTo(userID string) []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// FailingSender always returns an error. Test helper for delivery failure paths.
type FailingSender struct{}

func (FailingSender) Send(ctx context.Context, n *Notification) error {
	return fmt.Errorf("sender unavailable")
}
