package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/attentive/internal/model"
	"github.com/verte-zerg/attentive/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "attentive.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	pcts := []float64{50, 90, 70}
	for i, pct := range pcts {
		start := time.Unix(0, 0).UTC().Add(time.Duration(i) * time.Hour)
		end := start.Add(10 * time.Minute)
		rec := model.SummaryRecord{
			SessionID:        string(rune('a' + i)),
			Start:            start,
			End:              end,
			TotalSeconds:     600,
			AttentionSeconds: 6 * pct,
			AttentionPct:     pct,
		}
		if err := st.EmitSummary(ctx, rec); err != nil {
			t.Fatalf("emit summary: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Last: 2}, 1)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].SessionID != "b" || report.Sessions[1].SessionID != "c" {
		t.Fatalf("unexpected sessions: %+v", report.Sessions)
	}
	if report.Totals.Sessions != 2 || report.Totals.TotalSeconds != 1200 {
		t.Fatalf("unexpected totals: %+v", report.Totals)
	}
	if len(report.Best) != 1 || report.Best[0].SessionID != "b" {
		t.Fatalf("unexpected best: %+v", report.Best)
	}
	if len(report.Weakest) != 1 || report.Weakest[0].SessionID != "c" {
		t.Fatalf("unexpected weakest: %+v", report.Weakest)
	}
}
