package integrity

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"
)

// stubBackend implements all three reader interfaces over fixed data.
type stubBackend struct {
	quest      *Quest
	questErr   error
	recent     []time.Time
	recentErr  error
	inWindow   int
	windowErr  error
	flagged    int
	flaggedErr error
}

func (s *stubBackend) QuestSnapshot(_ context.Context, _ string) (*Quest, error) {
	return s.quest, s.questErr
}

func (s *stubBackend) RecentActions(_ context.Context, _ string, _ int) ([]time.Time, error) {
	return s.recent, s.recentErr
}

func (s *stubBackend) CountActionsSince(_ context.Context, _ string, _ time.Time) (int, error) {
	return s.inWindow, s.windowErr
}

func (s *stubBackend) CountFlaggedSince(_ context.Context, _ string, _ time.Time) (int, error) {
	return s.flagged, s.flaggedErr
}

func testChecker(b *stubBackend) *Checker {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewChecker(b, b, b, logger).WithClock(func() time.Time { return testNow })
}

func TestCheckScoresThroughTheReaders(t *testing.T) {
	started := testNow.Add(-4 * time.Minute)
	b := &stubBackend{
		quest:    &Quest{ID: "qst_1", UserID: "usr_1", StartedAt: &started, GoalCount: 20},
		inWindow: 9,
	}

	v := testChecker(b).Check(context.Background(), "qst_1", "usr_1", ActionNo, 9)
	if !v.ShouldFlag {
		t.Fatalf("expected burst flag, got %+v", v)
	}
	if v.ID == "" {
		t.Error("expected verdict ID to be assigned")
	}
	if v.QuestID != "qst_1" || v.UserID != "usr_1" {
		t.Errorf("verdict identity wrong: %+v", v)
	}
	if !v.EvaluatedAt.Equal(testNow) {
		t.Errorf("expected injected clock time, got %v", v.EvaluatedAt)
	}
}

func TestCheckMissingQuestIsInert(t *testing.T) {
	v := testChecker(&stubBackend{}).Check(context.Background(), "qst_missing", "usr_1", ActionNo, 3)
	if v.IsSuspicious || v.ShouldFlag || v.Score != 0 {
		t.Errorf("expected inert verdict, got %+v", v)
	}
}

func TestCheckReadFailureDegradesToInert(t *testing.T) {
	started := testNow.Add(-time.Minute)
	cases := map[string]*stubBackend{
		"quest read fails": {questErr: errors.New("connection refused")},
		"action log fails": {
			quest:     &Quest{ID: "qst_1", UserID: "usr_1", StartedAt: &started, GoalCount: 5},
			recentErr: errors.New("timeout"),
		},
		"window count fails": {
			quest:     &Quest{ID: "qst_1", UserID: "usr_1", StartedAt: &started, GoalCount: 5},
			windowErr: errors.New("timeout"),
		},
		"history fails": {
			quest:      &Quest{ID: "qst_1", UserID: "usr_1", StartedAt: &started, GoalCount: 5},
			flaggedErr: errors.New("timeout"),
		},
	}

	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			v := testChecker(b).Check(context.Background(), "qst_1", "usr_1", ActionNo, 4)
			if v.IsSuspicious || v.ShouldFlag || v.Score != 0 || len(v.Reasons) != 0 || v.Message != "" {
				t.Errorf("expected inert verdict on backend failure, got %+v", v)
			}
		})
	}
}

func TestCheckIsIdempotentAgainstFixedState(t *testing.T) {
	started := testNow.Add(-30 * time.Second)
	b := &stubBackend{
		quest: &Quest{ID: "qst_1", UserID: "usr_1", StartedAt: &started, GoalCount: 10},
		recent: []time.Time{
			testNow.Add(-5 * time.Second),
			testNow.Add(-8 * time.Second),
		},
		inWindow: 4,
		flagged:  3,
	}
	c := testChecker(b)

	a := c.Check(context.Background(), "qst_1", "usr_1", ActionNo, 4)
	bb := c.Check(context.Background(), "qst_1", "usr_1", ActionNo, 4)

	// IDs are random per call; everything else must match.
	a.ID, bb.ID = "", ""
	if !reflect.DeepEqual(a, bb) {
		t.Errorf("identical state produced different verdicts:\n%+v\n%+v", a, bb)
	}
}
