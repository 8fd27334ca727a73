package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/attentive/internal/model"
)

type memSink struct {
	samples   []model.SampleRecord
	summaries []model.SummaryRecord
	err       error
}

func (m *memSink) EmitSample(_ context.Context, rec model.SampleRecord) error {
	if m.err != nil {
		return m.err
	}
	m.samples = append(m.samples, rec)
	return nil
}

func (m *memSink) EmitSummary(_ context.Context, rec model.SummaryRecord) error {
	if m.err != nil {
		return m.err
	}
	m.summaries = append(m.summaries, rec)
	return nil
}

var t0 = time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC)

func TestSampleLoggerRateLimits(t *testing.T) {
	sink := &memSink{}
	l := NewSampleLogger(sink, time.Second)
	ctx := context.Background()

	var emittedAt []time.Time
	for ms := 0; ms <= 3500; ms += 100 {
		now := t0.Add(time.Duration(ms) * time.Millisecond)
		ok, err := l.Log(ctx, model.SampleRecord{Timestamp: now}, now)
		require.NoError(t, err)
		if ok {
			emittedAt = append(emittedAt, now)
		}
	}
	require.Len(t, sink.samples, 4)
	assert.Equal(t, t0, emittedAt[0])
	for i := 1; i < len(emittedAt); i++ {
		assert.GreaterOrEqual(t, emittedAt[i].Sub(emittedAt[i-1]), time.Second)
	}
}

func TestSampleLoggerFirstCallAlwaysEmits(t *testing.T) {
	sink := &memSink{}
	l := NewSampleLogger(sink, time.Minute)
	ok, err := l.Log(context.Background(), model.SampleRecord{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, sink.samples, 1)
}

func TestSampleLoggerDropsOnSinkFailure(t *testing.T) {
	sink := &memSink{err: errors.New("disk full")}
	l := NewSampleLogger(sink, time.Second)
	ctx := context.Background()

	ok, err := l.Log(ctx, model.SampleRecord{}, t0)
	assert.True(t, ok)
	assert.Error(t, err)

	// The gate advanced, so the next tick is not retried immediately.
	ok, err = l.Log(ctx, model.SampleRecord{}, t0.Add(100*time.Millisecond))
	assert.False(t, ok)
	assert.NoError(t, err)

	sink.err = nil
	ok, err = l.Log(ctx, model.SampleRecord{}, t0.Add(time.Second))
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Len(t, sink.samples, 1)
}

func TestSampleLoggerIntervalClamped(t *testing.T) {
	l := NewSampleLogger(&memSink{}, 0)
	assert.Equal(t, model.MinLogInterval, l.Interval())
	assert.Equal(t, model.MaxLogInterval, l.SetInterval(time.Hour))
}

func TestSummaryWriterWritesOnce(t *testing.T) {
	sink := &memSink{}
	w := NewSummaryWriter(sink)
	ctx := context.Background()

	wrote, err := w.Write(ctx, model.SummaryRecord{SessionID: "a"})
	require.NoError(t, err)
	assert.True(t, wrote)
	wrote, err = w.Write(ctx, model.SummaryRecord{SessionID: "b"})
	require.NoError(t, err)
	assert.False(t, wrote)

	require.Len(t, sink.summaries, 1)
	assert.Equal(t, "a", sink.summaries[0].SessionID)
	assert.True(t, w.Written())
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	good := &memSink{}
	bad := &memSink{err: errors.New("boom")}
	m := MultiSink{bad, good}

	err := m.EmitSample(context.Background(), model.SampleRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, good.samples, 1)

	require.Error(t, m.EmitSummary(context.Background(), model.SummaryRecord{}))
	assert.Len(t, good.summaries, 1)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0.123", FormatOffset(0.12345))
	assert.Equal(t, "-0.050", FormatOffset(-0.05))
	assert.Equal(t, "70.0", FormatSeconds(69.96))
	assert.Equal(t, "1", FormatBool(true))
	assert.Equal(t, "0", FormatBool(false))
	assert.Equal(t, "2026-01-19T09:00:00.250Z", FormatTimestamp(t0.Add(250*time.Millisecond)))
}
