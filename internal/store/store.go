// Package store handles SQLite persistence of samples and session summaries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/attentive/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width UTC so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps SQLite access. Rows are only ever appended.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			total_ms INTEGER NOT NULL,
			attention_ms INTEGER NOT NULL,
			attention_pct REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			ts TEXT NOT NULL,
			is_attentive INTEGER NOT NULL,
			face_detected INTEGER NOT NULL,
			face_looking INTEGER NOT NULL,
			eyes_looking INTEGER NOT NULL,
			nose_offset_x REAL NOT NULL,
			nose_offset_y REAL NOT NULL,
			eye_gaze_x REAL NOT NULL,
			eye_gaze_y REAL NOT NULL,
			session_ms INTEGER NOT NULL,
			attention_ms INTEGER NOT NULL,
			attention_pct REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_ended_at ON summaries(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_session ON samples(session_id, ts);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// EmitSample appends one sample row. It implements record.Sink.
func (s *Store) EmitSample(ctx context.Context, rec model.SampleRecord) error {
	c := rec.Classification
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO samples (session_id, ts, is_attentive, face_detected, face_looking, eyes_looking,
			nose_offset_x, nose_offset_y, eye_gaze_x, eye_gaze_y, session_ms, attention_ms, attention_pct)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		formatTime(rec.Timestamp),
		boolInt(rec.Attentive),
		boolInt(c.FaceDetected),
		boolInt(c.FaceLooking),
		boolInt(c.EyesLooking),
		c.NoseOffsetX,
		c.NoseOffsetY,
		c.EyeGazeX,
		c.EyeGazeY,
		secondsToMs(rec.SessionSeconds),
		secondsToMs(rec.AttentionSeconds),
		rec.AttentionPct,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// EmitSummary appends the session summary. It implements record.Sink.
func (s *Store) EmitSummary(ctx context.Context, rec model.SummaryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (session_id, started_at, ended_at, total_ms, attention_ms, attention_pct)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		formatTime(rec.Start),
		formatTime(rec.End),
		secondsToMs(rec.TotalSeconds),
		secondsToMs(rec.AttentionSeconds),
		rec.AttentionPct,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// ListSummaries returns stored summaries in end-time order, filtered by cfg.
func (s *Store) ListSummaries(ctx context.Context, cfg model.StatsConfig) ([]model.SummaryAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT id, session_id, started_at, ended_at, total_ms, attention_ms, attention_pct
		FROM summaries
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SummaryAggregate
	for rows.Next() {
		var agg model.SummaryAggregate
		var startedAt, endedAt string
		var totalMs, attentionMs int64
		if err := rows.Scan(&agg.ID, &agg.SessionID, &startedAt, &endedAt, &totalMs, &attentionMs, &agg.AttentionPct); err != nil {
			return nil, err
		}
		if agg.Start, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, err
		}
		if agg.End, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, err
		}
		agg.TotalSeconds = msToSeconds(totalMs)
		agg.AttentionSeconds = msToSeconds(attentionMs)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(result) > cfg.Last {
		result = result[len(result)-cfg.Last:]
	}
	return result, nil
}

// CountSamples returns the number of samples stored for a session.
func (s *Store) CountSamples(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func secondsToMs(v float64) int64 {
	return int64(v*1000 + 0.5)
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}
