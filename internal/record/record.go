// Package record emits the persisted sample trace and session summary.
package record

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/verte-zerg/attentive/internal/model"
)

// Sink is an append-only destination for records.
type Sink interface {
	EmitSample(ctx context.Context, rec model.SampleRecord) error
	EmitSummary(ctx context.Context, rec model.SummaryRecord) error
}

// MultiSink writes every record to each sink in order.
type MultiSink []Sink

// EmitSample implements Sink.
func (m MultiSink) EmitSample(ctx context.Context, rec model.SampleRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.EmitSample(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EmitSummary implements Sink.
func (m MultiSink) EmitSummary(ctx context.Context, rec model.SummaryRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.EmitSummary(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SampleLogger lets at most one sample through per interval.
type SampleLogger struct {
	sink     Sink
	interval time.Duration
	lastEmit time.Time
	emitted  bool
}

// NewSampleLogger returns a gate writing to sink. The first sample offered
// is always eligible.
func NewSampleLogger(sink Sink, interval time.Duration) *SampleLogger {
	l := &SampleLogger{sink: sink}
	l.SetInterval(interval)
	return l
}

// SetInterval changes the emission interval, clamped to its valid range.
func (l *SampleLogger) SetInterval(d time.Duration) time.Duration {
	l.interval = model.ClampDuration(d, model.MinLogInterval, model.MaxLogInterval)
	return l.interval
}

// Interval returns the emission interval.
func (l *SampleLogger) Interval() time.Duration {
	return l.interval
}

// Log offers a sample taken at now. It reports whether the sample passed the
// gate. A sink failure drops the record and still advances the gate.
func (l *SampleLogger) Log(ctx context.Context, rec model.SampleRecord, now time.Time) (bool, error) {
	if l.emitted && now.Sub(l.lastEmit) < l.interval {
		return false, nil
	}
	l.emitted = true
	l.lastEmit = now
	return true, l.sink.EmitSample(ctx, rec)
}

// SummaryWriter writes the session summary exactly once.
type SummaryWriter struct {
	sink Sink
	once sync.Once
	done bool
}

// NewSummaryWriter returns a writer for sink.
func NewSummaryWriter(sink Sink) *SummaryWriter {
	return &SummaryWriter{sink: sink}
}

// Write emits rec on the first call. Later calls do nothing and return false.
func (w *SummaryWriter) Write(ctx context.Context, rec model.SummaryRecord) (bool, error) {
	var err error
	wrote := false
	w.once.Do(func() {
		wrote = true
		w.done = true
		err = w.sink.EmitSummary(ctx, rec)
	})
	return wrote, err
}

// Written reports whether the summary has been emitted.
func (w *SummaryWriter) Written() bool {
	return w.done
}

// FormatOffset renders an offset or gaze value with 3 decimals.
func FormatOffset(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FormatSeconds renders a duration or percentage with 1 decimal.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatBool renders a flag as 0 or 1.
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// TimestampLayout is the ISO-8601 layout used for persisted timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t as ISO-8601 with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
