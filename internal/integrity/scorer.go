package integrity

import (
	"fmt"
	"math"
	"time"
)

// Scoring parameters. Contributions are summed across rules and clamped
// to [0, 100] at the end; the repeat-offender rule is deliberately
// uncapped before that final clamp.
const (
	burstWindow         = 5 * time.Minute
	burstActionLimit    = 8
	burstPointsPer      = 10
	sustainedRateLimit  = 2.0 // actions per minute
	sustainedPointsPer  = 20
	tightIntervalFloor  = 10.0 // seconds
	tightIntervalCap    = 50
	tightPointsPer      = 5
	minMinutesPerAction = 0.5
	repeatOffenderLimit = 2
	repeatPointsPer     = 10
	rapidStartWindow    = 1.0 // minutes
	rapidStartCount     = 3
)

// Motivational copy surfaced to the user alongside a flagged verdict.
const (
	msgHighRate   = "Whoa, that's a lot of asks at once! Each rejection deserves its own real moment."
	msgMovingFast = "You're moving fast! Real rejections come from real conversations - quality over speed."
	msgRushed     = "That quest wrapped up quickly. Slow, genuine asks are what actually build confidence."
)

// Evaluate scores a single logged action against all detection rules.
// It is a pure function of now and in: identical inputs always produce
// identical verdicts. The ID and EvaluatedAt fields are left for the
// caller to fill before persisting.
func Evaluate(now time.Time, in Inputs) Verdict {
	v := Verdict{EvaluatedAt: now}
	if in.Quest != nil {
		v.QuestID = in.Quest.ID
		v.UserID = in.Quest.UserID
	}

	// A quest with no start reference cannot be analyzed. Not an error:
	// the inert verdict is the contract for every degraded path.
	if in.Quest == nil || in.Quest.StartedAt == nil {
		return v
	}

	currentCount := in.CurrentCount
	if currentCount < 0 {
		currentCount = 0
	}
	n := currentCount + 1 // actions including the one being evaluated

	elapsedMin := now.Sub(*in.Quest.StartedAt).Minutes()
	if elapsedMin < 0 {
		elapsedMin = 0
	}

	var score float64

	fire := func(points float64, reason, message string) {
		score += points
		v.Reasons = append(v.Reasons, reason)
		v.IsSuspicious = true
		v.ShouldFlag = true
		if v.Message == "" {
			v.Message = message
		}
	}

	// Burst: too many actions inside the trailing 5-minute window.
	// The sustained-rate check below only runs when this one is quiet;
	// both guard the same behavior at different horizons.
	actionsInWindow := in.ActionsLast5Min + 1
	if actionsInWindow > burstActionLimit {
		fire(
			math.Min(100, float64(actionsInWindow-burstActionLimit)*burstPointsPer),
			fmt.Sprintf("High activity rate: %d actions in the last 5 minutes", actionsInWindow),
			msgHighRate,
		)
	} else {
		perMinute := float64(n) / math.Max(elapsedMin, 0.1)
		if perMinute > sustainedRateLimit {
			fire(
				math.Min(100, (perMinute-sustainedRateLimit)*sustainedPointsPer),
				fmt.Sprintf("Sustained rate of %.1f actions per minute", perMinute),
				msgMovingFast,
			)
		}
	}

	// Tight intervals between the most recent actions.
	if len(in.RecentActionTimes) >= 2 && currentCount > 0 {
		minGap, avgGap := intervalStats(in.RecentActionTimes)
		if minGap < tightIntervalFloor {
			fire(
				math.Min(tightIntervalCap, (tightIntervalFloor-minGap)*tightPointsPer),
				fmt.Sprintf("Actions only %.1fs apart (average %.1fs)", minGap, avgGap),
				msgMovingFast,
			)
		}
	}

	// Unrealistically fast full completion, checked only on the action
	// that reaches the goal. Floor is 30 seconds per action.
	if n >= in.Quest.GoalCount && in.Quest.GoalCount > 0 {
		minRealistic := float64(in.Quest.GoalCount) * minMinutesPerAction
		if elapsedMin > 0 && elapsedMin < minRealistic {
			fire(
				math.Min(100, (minRealistic-elapsedMin)/minRealistic*100),
				fmt.Sprintf("Quest with goal %d completed in %.1f minutes", in.Quest.GoalCount, elapsedMin),
				msgRushed,
			)
		}
	}

	// Repeat offender: flagged quests in the trailing 30 days. Uncapped
	// before the final clamp so a heavy history alone can cross the
	// flag threshold.
	if in.FlaggedLast30Days > repeatOffenderLimit {
		fire(
			float64(in.FlaggedLast30Days)*repeatPointsPer,
			fmt.Sprintf("%d quests flagged as suspicious in the last 30 days", in.FlaggedLast30Days),
			msgRushed,
		)
	}

	// Burst right after starting.
	if elapsedMin < rapidStartWindow && n > rapidStartCount {
		fire(
			math.Min(100, float64(n)/elapsedMin*10),
			fmt.Sprintf("%d actions within %.1f minutes of starting", n, elapsedMin),
			msgMovingFast,
		)
	}

	v.Score = math.Min(100, math.Round(score*10)/10)

	// Safety net: rules individually set ShouldFlag, but the aggregate
	// threshold must hold regardless of which rules contributed.
	if v.Score >= FlagThreshold {
		v.ShouldFlag = true
		if v.Message == "" {
			v.Message = msgRushed
		}
	}

	return v
}

// intervalStats computes the smallest and mean gap in seconds between
// consecutive timestamps ordered newest first. Negative gaps (out-of-order
// timestamps from clock skew) clamp to zero rather than poisoning the
// minimum.
func intervalStats(times []time.Time) (minGap, avgGap float64) {
	minGap = math.MaxFloat64
	var total float64
	for i := 0; i < len(times)-1; i++ {
		gap := times[i].Sub(times[i+1]).Seconds()
		if gap < 0 {
			gap = 0
		}
		if gap < minGap {
			minGap = gap
		}
		total += gap
	}
	avgGap = total / float64(len(times)-1)
	return minGap, avgGap
}
