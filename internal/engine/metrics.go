package engine

import (
	"sync/atomic"
	"time"
)

// Metrics counts pipeline activity. It is safe for concurrent use.
type Metrics struct {
	frames      atomic.Int64
	faceless    atomic.Int64
	transitions atomic.Int64
	samples     atomic.Int64
	sinkErrors  atomic.Int64
	lastFrame   atomic.Int64
}

func (m *Metrics) recordFrame(faceDetected bool, at time.Time) {
	m.frames.Add(1)
	if !faceDetected {
		m.faceless.Add(1)
	}
	m.lastFrame.Store(at.UnixMilli())
}

func (m *Metrics) recordTransition() {
	m.transitions.Add(1)
}

func (m *Metrics) recordSample() {
	m.samples.Add(1)
}

func (m *Metrics) recordSinkError() {
	m.sinkErrors.Add(1)
}

// Frames returns the number of ticks processed.
func (m *Metrics) Frames() int64 {
	return m.frames.Load()
}

// FacelessFrames returns the number of ticks without a detected face.
func (m *Metrics) FacelessFrames() int64 {
	return m.faceless.Load()
}

// Transitions returns the number of committed state changes.
func (m *Metrics) Transitions() int64 {
	return m.transitions.Load()
}

// SamplesWritten returns the number of samples accepted by the sink.
func (m *Metrics) SamplesWritten() int64 {
	return m.samples.Load()
}

// SinkErrors returns the number of failed sink writes.
func (m *Metrics) SinkErrors() int64 {
	return m.sinkErrors.Load()
}

// LastFrame returns the time of the most recent tick, or the zero time.
func (m *Metrics) LastFrame() time.Time {
	ms := m.lastFrame.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// LogAttrs returns the counters as slog key/value pairs.
func (m *Metrics) LogAttrs() []any {
	return []any{
		"frames", m.Frames(),
		"faceless", m.FacelessFrames(),
		"transitions", m.Transitions(),
		"samples", m.SamplesWritten(),
		"sink_errors", m.SinkErrors(),
	}
}
