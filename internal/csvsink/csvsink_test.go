package csvsink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/attentive/internal/model"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestSampleLogLayout(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 1, 19, 9, 30, 15, 0, time.UTC)
	sink, err := Open(dir, start)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	if filepath.Base(sink.LogPath()) != "attention_log_20260119_093015.csv" {
		t.Fatalf("unexpected log name: %s", sink.LogPath())
	}

	rec := model.SampleRecord{
		Timestamp: start.Add(1500 * time.Millisecond),
		Attentive: true,
		Classification: model.ClassificationResult{
			FaceDetected: true,
			FaceLooking:  true,
			EyesLooking:  false,
			NoseOffsetX:  0.12345,
			NoseOffsetY:  -0.05,
			EyeGazeX:     0.2,
			EyeGazeY:     0.08,
		},
		SessionSeconds:   1.54,
		AttentionSeconds: 1.26,
		AttentionPct:     81.818,
	}
	if err := sink.EmitSample(context.Background(), rec); err != nil {
		t.Fatalf("emit sample: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rows := readCSV(t, sink.LogPath())
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][11] != "attention_pct" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	want := []string{
		"2026-01-19T09:30:16.500Z", "1", "1", "1", "0",
		"0.123", "-0.050", "0.200", "0.080",
		"1.5", "1.3", "81.8",
	}
	for i, v := range want {
		if rows[1][i] != v {
			t.Fatalf("column %d: expected %q, got %q", i, v, rows[1][i])
		}
	}
}

func TestSummaryHeaderWrittenOnce(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		start := time.Date(2026, 1, 19, 9, i, 0, 0, time.UTC)
		sink, err := Open(dir, start)
		if err != nil {
			t.Fatalf("open sink: %v", err)
		}
		rec := model.SummaryRecord{
			SessionID:        "s" + string(rune('0'+i)),
			Start:            start,
			End:              start.Add(10 * time.Second),
			TotalSeconds:     10,
			AttentionSeconds: 7,
			AttentionPct:     70,
		}
		if err := sink.EmitSummary(ctx, rec); err != nil {
			t.Fatalf("emit summary: %v", err)
		}
		_ = sink.Close()
	}

	rows := readCSV(t, filepath.Join(dir, SummaryFileName))
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "session_id" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "s0" || rows[2][0] != "s1" {
		t.Fatalf("unexpected session ids: %v %v", rows[1], rows[2])
	}
	if rows[2][3] != "10.0" || rows[2][4] != "7.0" || rows[2][5] != "70.0" {
		t.Fatalf("unexpected summary values: %v", rows[2])
	}
}
