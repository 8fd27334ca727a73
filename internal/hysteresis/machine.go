// Package hysteresis debounces the raw attentiveness signal into a stable
// state. A candidate state must persist for the configured delay before it
// is committed, so single-frame flicker never changes the stable state.
package hysteresis

import (
	"time"

	"github.com/verte-zerg/attentive/internal/model"
)

// Machine is the debounce state machine. The zero value is not usable; call New.
type Machine struct {
	state        model.AttentionState
	pending      *model.AttentionState
	pendingSince time.Time

	delay         time.Duration
	seedFromFirst bool
	seeded        bool
}

// New returns a Machine starting in Distracted. With seedFromFirst the first
// observation is committed immediately.
func New(delay time.Duration, seedFromFirst bool) *Machine {
	m := &Machine{seedFromFirst: seedFromFirst}
	m.SetDelay(delay)
	return m
}

// SetDelay changes the debounce delay, clamped to its valid range.
func (m *Machine) SetDelay(d time.Duration) time.Duration {
	m.delay = model.ClampDuration(d, model.MinHysteresisDelay, model.MaxHysteresisDelay)
	return m.delay
}

// Delay returns the debounce delay.
func (m *Machine) Delay() time.Duration {
	return m.delay
}

// State returns the committed state.
func (m *Machine) State() model.AttentionState {
	return m.state
}

// Pending returns the candidate state awaiting commitment, if any.
func (m *Machine) Pending() (model.AttentionState, bool) {
	if m.pending == nil {
		return model.Distracted, false
	}
	return *m.pending, true
}

// Observe feeds one raw observation taken at now and reports the stable
// state and whether this call committed a transition.
func (m *Machine) Observe(raw bool, now time.Time) (model.AttentionState, bool) {
	observed := model.StateFor(raw)
	if m.seedFromFirst && !m.seeded {
		m.seeded = true
		changed := observed != m.state
		m.state = observed
		m.pending = nil
		return m.state, changed
	}
	m.seeded = true

	if observed == m.state {
		m.pending = nil
		return m.state, false
	}
	if m.pending == nil || *m.pending != observed {
		m.pending = &observed
		m.pendingSince = now
		return m.state, false
	}
	if now.Sub(m.pendingSince) >= m.delay {
		m.state = observed
		m.pending = nil
		return m.state, true
	}
	return m.state, false
}

// ClearPending drops any candidate state without touching the stable state.
func (m *Machine) ClearPending() {
	m.pending = nil
}

// Reset returns the machine to its initial state, keeping the delay.
func (m *Machine) Reset() {
	m.state = model.Distracted
	m.pending = nil
	m.pendingSince = time.Time{}
	m.seeded = false
}
