package integrity

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

func startedQuest(ago time.Duration, goal int) *Quest {
	t := testNow.Add(-ago)
	return &Quest{ID: "qst_1", UserID: "usr_1", StartedAt: &t, GoalCount: goal}
}

func TestMissingQuestIsInert(t *testing.T) {
	v := Evaluate(testNow, Inputs{Quest: nil, CurrentCount: 5})
	if v.IsSuspicious || v.ShouldFlag || v.Score != 0 || len(v.Reasons) != 0 || v.Message != "" {
		t.Errorf("expected inert verdict, got %+v", v)
	}
}

func TestUnstartedQuestIsInert(t *testing.T) {
	quest := &Quest{ID: "qst_1", UserID: "usr_1", GoalCount: 10}
	v := Evaluate(testNow, Inputs{Quest: quest, CurrentCount: 100, ActionsLast5Min: 50, FlaggedLast30Days: 10})
	if v.IsSuspicious || v.ShouldFlag || v.Score != 0 || len(v.Reasons) != 0 || v.Message != "" {
		t.Errorf("expected inert verdict for unstarted quest, got %+v", v)
	}
}

func TestBurstInFiveMinutes(t *testing.T) {
	// 9 prior actions in the window plus this one = 10, over the limit of 8.
	v := Evaluate(testNow, Inputs{
		Quest:           startedQuest(4*time.Minute, 20),
		CurrentCount:    9,
		ActionsLast5Min: 9,
	})
	if !v.ShouldFlag {
		t.Fatal("expected burst to flag")
	}
	if v.Score < 20 {
		t.Errorf("expected score >= 20, got %f", v.Score)
	}
	if !hasReason(v, "High activity rate") {
		t.Errorf("expected high activity reason, got %v", v.Reasons)
	}
	if v.Message != msgHighRate {
		t.Errorf("expected burst message, got %q", v.Message)
	}
}

func TestSustainedRateOnlyWhenBurstQuiet(t *testing.T) {
	// 3 actions in a quest started 1 minute ago: 3/min, over the 2/min limit,
	// but under the 5-minute burst limit.
	v := Evaluate(testNow, Inputs{
		Quest:           startedQuest(time.Minute, 20),
		CurrentCount:    2,
		ActionsLast5Min: 2,
	})
	if !v.IsSuspicious {
		t.Fatal("expected sustained rate to fire")
	}
	if !hasReason(v, "Sustained rate") {
		t.Errorf("expected sustained rate reason, got %v", v.Reasons)
	}
	// (3 - 2) * 20 = 20
	if v.Score != 20 {
		t.Errorf("expected score 20, got %f", v.Score)
	}
}

func TestTightIntervals(t *testing.T) {
	// Gaps of 5s between the most recent actions.
	times := []time.Time{
		testNow.Add(-10 * time.Second),
		testNow.Add(-15 * time.Second),
		testNow.Add(-20 * time.Second),
	}
	v := Evaluate(testNow, Inputs{
		Quest:             startedQuest(time.Hour, 100),
		CurrentCount:      2,
		RecentActionTimes: times,
	})
	if !v.IsSuspicious {
		t.Fatal("expected tight intervals to fire")
	}
	// (10 - 5) * 5 = 25
	if v.Score != 25 {
		t.Errorf("expected score 25, got %f", v.Score)
	}
}

func TestTightIntervalsNeedPriorActions(t *testing.T) {
	times := []time.Time{
		testNow.Add(-2 * time.Second),
		testNow.Add(-4 * time.Second),
	}
	v := Evaluate(testNow, Inputs{
		Quest:             startedQuest(time.Hour, 100),
		CurrentCount:      0,
		RecentActionTimes: times,
	})
	if v.IsSuspicious {
		t.Errorf("first action should not trip the interval rule: %+v", v)
	}
}

func TestOutOfOrderTimestampsClampToZeroGap(t *testing.T) {
	// Clock skew: second timestamp is newer than the first. The negative
	// gap clamps to 0 instead of producing garbage.
	times := []time.Time{
		testNow.Add(-30 * time.Second),
		testNow.Add(-10 * time.Second),
	}
	v := Evaluate(testNow, Inputs{
		Quest:             startedQuest(time.Hour, 100),
		CurrentCount:      1,
		RecentActionTimes: times,
	})
	// (10 - 0) * 5 = 50, the per-rule cap.
	if v.Score != 50 {
		t.Errorf("expected capped interval score 50, got %f", v.Score)
	}
}

func TestRealisticCompletionDoesNotFire(t *testing.T) {
	// Goal 10 completed over 10 minutes: floor is 5 minutes, so clean.
	v := Evaluate(testNow, Inputs{
		Quest:        startedQuest(10*time.Minute, 10),
		CurrentCount: 9,
	})
	if hasReason(v, "completed in") {
		t.Errorf("completion rule should not fire: %v", v.Reasons)
	}
}

func TestFastCompletionFires(t *testing.T) {
	// Goal 10 completed in 1 minute against a 5-minute floor.
	v := Evaluate(testNow, Inputs{
		Quest:        startedQuest(time.Minute, 10),
		CurrentCount: 9,
	})
	if !hasReason(v, "completed in") {
		t.Fatalf("completion rule should fire: %v", v.Reasons)
	}
	if !v.ShouldFlag {
		t.Error("expected fast completion to flag")
	}
}

func TestRepeatOffender(t *testing.T) {
	// 3 flagged quests in 30 days, everything else quiet.
	v := Evaluate(testNow, Inputs{
		Quest:             startedQuest(2*time.Hour, 100),
		CurrentCount:      1,
		FlaggedLast30Days: 3,
	})
	if !v.IsSuspicious {
		t.Fatal("expected repeat offender rule to fire")
	}
	if v.Score != 30 {
		t.Errorf("expected score 30, got %f", v.Score)
	}
	if len(v.Reasons) != 1 {
		t.Errorf("expected exactly one reason, got %v", v.Reasons)
	}
}

func TestRepeatOffenderAloneCanCrossThreshold(t *testing.T) {
	// The history contribution is uncapped before the final clamp.
	v := Evaluate(testNow, Inputs{
		Quest:             startedQuest(2*time.Hour, 100),
		CurrentCount:      1,
		FlaggedLast30Days: 20,
	})
	if v.Score != 100 {
		t.Errorf("expected clamped score 100, got %f", v.Score)
	}
	if !v.ShouldFlag {
		t.Error("expected flag at clamped score")
	}
}

func TestRapidStartBurst(t *testing.T) {
	// 5 actions within 30 seconds of starting.
	v := Evaluate(testNow, Inputs{
		Quest:        startedQuest(30*time.Second, 100),
		CurrentCount: 4,
	})
	if !hasReason(v, "of starting") {
		t.Fatalf("rapid start rule should fire: %v", v.Reasons)
	}
}

func TestScoreAlwaysClamped(t *testing.T) {
	// Stack every rule at once.
	times := []time.Time{
		testNow.Add(-1 * time.Second),
		testNow.Add(-2 * time.Second),
		testNow.Add(-3 * time.Second),
	}
	v := Evaluate(testNow, Inputs{
		Quest:             startedQuest(20*time.Second, 5),
		CurrentCount:      30,
		ActionsLast5Min:   30,
		RecentActionTimes: times,
		FlaggedLast30Days: 25,
	})
	if v.Score < 0 || v.Score > 100 {
		t.Errorf("score out of range: %f", v.Score)
	}
	if v.Score != 100 {
		t.Errorf("expected saturated score 100, got %f", v.Score)
	}
}

func TestFirstFiringRuleOwnsTheMessage(t *testing.T) {
	// Burst fires first, repeat offender also fires: the message must
	// stay with the burst rule.
	v := Evaluate(testNow, Inputs{
		Quest:             startedQuest(4*time.Minute, 100),
		CurrentCount:      9,
		ActionsLast5Min:   9,
		FlaggedLast30Days: 5,
	})
	if len(v.Reasons) < 2 {
		t.Fatalf("expected multiple rules to fire, got %v", v.Reasons)
	}
	if v.Message != msgHighRate {
		t.Errorf("message should come from the first firing rule, got %q", v.Message)
	}
}

func TestThresholdForcesFlag(t *testing.T) {
	// Any verdict at or above the threshold must flag.
	v := Evaluate(testNow, Inputs{
		Quest:             startedQuest(2*time.Hour, 100),
		CurrentCount:      1,
		FlaggedLast30Days: 6, // 60 points
	})
	if v.Score < FlagThreshold {
		t.Fatalf("test setup: expected score >= %d, got %f", FlagThreshold, v.Score)
	}
	if !v.ShouldFlag {
		t.Error("expected flag at threshold")
	}
	if v.Message == "" {
		t.Error("expected a message once flagged")
	}
}

func TestNegativeCountFlooredToZero(t *testing.T) {
	clean := Evaluate(testNow, Inputs{Quest: startedQuest(time.Hour, 100), CurrentCount: 0})
	floored := Evaluate(testNow, Inputs{Quest: startedQuest(time.Hour, 100), CurrentCount: -7})
	if !reflect.DeepEqual(clean, floored) {
		t.Errorf("negative count should behave like zero:\n%+v\n%+v", clean, floored)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	in := Inputs{
		Quest:           startedQuest(3*time.Minute, 10),
		CurrentCount:    9,
		ActionsLast5Min: 4,
		RecentActionTimes: []time.Time{
			testNow.Add(-20 * time.Second),
			testNow.Add(-45 * time.Second),
		},
		FlaggedLast30Days: 1,
	}
	a := Evaluate(testNow, in)
	b := Evaluate(testNow, in)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs produced different verdicts:\n%+v\n%+v", a, b)
	}
}

func hasReason(v Verdict, substr string) bool {
	for _, r := range v.Reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}
