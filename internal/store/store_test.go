package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/attentive/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "attentive.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func summaryAt(id string, end time.Time, total, attentive float64) model.SummaryRecord {
	return model.SummaryRecord{
		SessionID:        id,
		Start:            end.Add(-time.Duration(total * float64(time.Second))),
		End:              end,
		TotalSeconds:     total,
		AttentionSeconds: attentive,
		AttentionPct:     100 * attentive / total,
	}
}

func TestSummariesRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, st.EmitSummary(ctx, summaryAt("b", base.Add(time.Hour), 20, 5)))
	require.NoError(t, st.EmitSummary(ctx, summaryAt("a", base, 10, 7)))

	got, err := st.ListSummaries(ctx, model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SessionID)
	assert.Equal(t, "b", got[1].SessionID)
	assert.InDelta(t, 10.0, got[0].TotalSeconds, 1e-9)
	assert.InDelta(t, 7.0, got[0].AttentionSeconds, 1e-9)
	assert.InDelta(t, 70.0, got[0].AttentionPct, 1e-9)
	assert.True(t, got[0].End.Equal(base))
	assert.NotZero(t, got[0].ID)
}

func TestListSummariesFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3", "s4"} {
		end := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.EmitSummary(ctx, summaryAt(id, end, 60, 30)))
	}

	since := base.Add(90 * time.Minute)
	got, err := st.ListSummaries(ctx, model.StatsConfig{Since: &since})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s3", got[0].SessionID)

	got, err = st.ListSummaries(ctx, model.StatsConfig{Last: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "s2", got[0].SessionID)
	assert.Equal(t, "s4", got[2].SessionID)
}

func TestEmitSampleAppends(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := model.SampleRecord{
			SessionID: "sess",
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Attentive: i%2 == 0,
			Classification: model.ClassificationResult{
				FaceDetected: true,
				NoseOffsetX:  0.1,
			},
			SessionSeconds:   float64(i),
			AttentionSeconds: float64(i) / 2,
			AttentionPct:     50,
		}
		require.NoError(t, st.EmitSample(ctx, rec))
	}
	require.NoError(t, st.EmitSample(ctx, model.SampleRecord{SessionID: "other", Timestamp: now}))

	n, err := st.CountSamples(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
