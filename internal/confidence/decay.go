package confidence

import "time"

// ApplyDecay subtracts decayPerDay from the meter for each full day the
// player has been idle past the grace window, without re-charging days a
// previous sweep already covered. Returns whether the meter changed and
// whether it crossed below the warn threshold on this application.
func ApplyDecay(m *Meter, now time.Time, decayPerDay float64) (changed, crossedLow bool) {
	if decayPerDay <= 0 {
		return false, false
	}

	// Decay resumes from wherever the last sweep left off.
	since := m.LastActivityAt
	if m.LastDecayAt.After(since) {
		since = m.LastDecayAt
	}

	idle := now.Sub(since)
	if idle < idleGrace {
		return false, false
	}

	fullDays := int(idle / (24 * time.Hour))
	if fullDays < 1 {
		return false, false
	}

	before := m.Level
	m.Level -= decayPerDay * float64(fullDays)
	if m.Level < MinLevel {
		m.Level = MinLevel
	}
	m.LastDecayAt = since.Add(time.Duration(fullDays) * 24 * time.Hour)
	m.UpdatedAt = now

	// LastDecayAt advanced even if the level was already floored, so the
	// meter must be saved either way.
	crossedLow = before >= WarnThreshold && m.Level < WarnThreshold
	return true, crossedLow
}
