// Package csvsink writes the sample trace and session summaries as CSV files.
package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/verte-zerg/attentive/internal/model"
	"github.com/verte-zerg/attentive/internal/record"
)

// SummaryFileName is the cumulative summary file shared by all sessions.
const SummaryFileName = "attention_summary.csv"

var sampleHeader = []string{
	"timestamp", "is_attentive", "face_detected",
	"face_looking", "eyes_looking",
	"nose_offset_x", "nose_offset_y",
	"eye_gaze_x", "eye_gaze_y",
	"session_time", "attention_time", "attention_pct",
}

var summaryHeader = []string{
	"session_id", "start_time", "end_time",
	"total_time_sec", "attention_time_sec", "attention_pct",
}

// Sink appends samples to a per-session log file and the summary to a
// shared file in the same directory.
type Sink struct {
	mu          sync.Mutex
	logPath     string
	summaryPath string
	file        *os.File
	w           *csv.Writer
}

// LogFileName returns the per-session log file name for a session started at t.
func LogFileName(t time.Time) string {
	return fmt.Sprintf("attention_log_%s.csv", t.Format("20060102_150405"))
}

// Open creates the session log under dir and writes its header.
func Open(dir string, started time.Time) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	logPath := filepath.Join(dir, LogFileName(started))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create sample log: %w", err)
	}
	s := &Sink{
		logPath:     logPath,
		summaryPath: filepath.Join(dir, SummaryFileName),
		file:        file,
		w:           csv.NewWriter(file),
	}
	if err := s.writeRow(sampleHeader); err != nil {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close on header failure.
			_ = cerr
		}
		return nil, err
	}
	return s, nil
}

// LogPath returns the per-session sample log path.
func (s *Sink) LogPath() string {
	return s.logPath
}

// SummaryPath returns the shared summary file path.
func (s *Sink) SummaryPath() string {
	return s.summaryPath
}

// EmitSample implements record.Sink.
func (s *Sink) EmitSample(_ context.Context, rec model.SampleRecord) error {
	c := rec.Classification
	row := []string{
		record.FormatTimestamp(rec.Timestamp),
		record.FormatBool(rec.Attentive),
		record.FormatBool(c.FaceDetected),
		record.FormatBool(c.FaceLooking),
		record.FormatBool(c.EyesLooking),
		record.FormatOffset(c.NoseOffsetX),
		record.FormatOffset(c.NoseOffsetY),
		record.FormatOffset(c.EyeGazeX),
		record.FormatOffset(c.EyeGazeY),
		record.FormatSeconds(rec.SessionSeconds),
		record.FormatSeconds(rec.AttentionSeconds),
		record.FormatSeconds(rec.AttentionPct),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRow(row)
}

// EmitSummary implements record.Sink. The header is written only when the
// summary file is new.
func (s *Sink) EmitSummary(_ context.Context, rec model.SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeHeader := false
	if _, err := os.Stat(s.summaryPath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat summary file: %w", err)
		}
		writeHeader = true
	}
	file, err := os.OpenFile(s.summaryPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open summary file: %w", err)
	}
	w := csv.NewWriter(file)
	if writeHeader {
		if err := w.Write(summaryHeader); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to write summary header: %w", err)
		}
	}
	row := []string{
		rec.SessionID,
		record.FormatTimestamp(rec.Start),
		record.FormatTimestamp(rec.End),
		record.FormatSeconds(rec.TotalSeconds),
		record.FormatSeconds(rec.AttentionSeconds),
		record.FormatSeconds(rec.AttentionPct),
	}
	if err := w.Write(row); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write summary: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush summary: %w", err)
	}
	return file.Close()
}

// Close closes the sample log.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *Sink) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to flush sample log: %w", err)
	}
	return nil
}
