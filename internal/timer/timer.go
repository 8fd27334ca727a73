// Package timer accumulates session timing statistics from the stable
// attentiveness state.
package timer

import "time"

// Timer tracks session elapsed time, cumulative attentive time and the
// current distraction streak. Elapsed time between two updates is
// attributed to the state observed at the later update.
type Timer struct {
	sessionStart time.Time
	lastUpdate   time.Time
	attentive    time.Duration
	current      bool

	streakStart *time.Time
	distraction time.Duration

	pausedAt    *time.Time
	pausedTotal time.Duration
}

// New starts a session epoch at now.
func New(now time.Time) *Timer {
	return &Timer{sessionStart: now, lastUpdate: now}
}

// Reset reinitializes every field to a fresh epoch at now.
func (t *Timer) Reset(now time.Time) {
	*t = Timer{sessionStart: now, lastUpdate: now}
}

// Update records the state for the tick at now.
func (t *Timer) Update(attentive bool, now time.Time) {
	if t.pausedAt != nil {
		return
	}
	elapsed := now.Sub(t.lastUpdate)
	if elapsed < 0 {
		elapsed = 0
	}
	if attentive {
		t.attentive += elapsed
		t.streakStart = nil
		t.distraction = 0
	} else {
		if t.streakStart == nil {
			start := now
			t.streakStart = &start
		}
		t.distraction = now.Sub(*t.streakStart)
	}
	t.current = attentive
	if now.After(t.lastUpdate) {
		t.lastUpdate = now
	}
}

// Pause stops accumulation until Resume.
func (t *Timer) Pause(now time.Time) {
	if t.pausedAt != nil {
		return
	}
	t.pausedAt = &now
}

// Resume continues accumulation from now; the paused span counts toward
// neither attentive nor session time, nor the running distraction streak.
func (t *Timer) Resume(now time.Time) {
	if t.pausedAt == nil {
		return
	}
	if span := now.Sub(*t.pausedAt); span > 0 {
		t.pausedTotal += span
		if t.streakStart != nil {
			*t.streakStart = t.streakStart.Add(span)
		}
	}
	t.pausedAt = nil
	t.lastUpdate = now
}

// Paused reports whether the timer is paused.
func (t *Timer) Paused() bool {
	return t.pausedAt != nil
}

// Start returns the session epoch start.
func (t *Timer) Start() time.Time {
	return t.sessionStart
}

// Attentive reports the state recorded at the last update.
func (t *Timer) Attentive() bool {
	return t.current
}

// AttentiveDuration returns the cumulative attentive time.
func (t *Timer) AttentiveDuration() time.Duration {
	return t.attentive
}

// CurrentDistraction returns the length of the running distraction streak.
func (t *Timer) CurrentDistraction() time.Duration {
	return t.distraction
}

// SessionElapsed returns monitored time since the epoch start, excluding pauses.
func (t *Timer) SessionElapsed(now time.Time) time.Duration {
	paused := t.pausedTotal
	if t.pausedAt != nil {
		now = *t.pausedAt
	}
	elapsed := now.Sub(t.sessionStart) - paused
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// AttentionPercentage returns attentive time as a share of session time.
// An empty session counts as fully attentive.
func (t *Timer) AttentionPercentage(now time.Time) float64 {
	elapsed := t.SessionElapsed(now)
	if elapsed == 0 {
		return 100
	}
	pct := 100 * t.attentive.Seconds() / elapsed.Seconds()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
