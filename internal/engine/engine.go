// Package engine runs the attention pipeline: classify, debounce, update the
// session timer and log a rate-limited sample, all under one lock so each
// tick observes a single consistent "now".
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/attentive/internal/clock"
	"github.com/verte-zerg/attentive/internal/gaze"
	"github.com/verte-zerg/attentive/internal/hysteresis"
	"github.com/verte-zerg/attentive/internal/model"
	"github.com/verte-zerg/attentive/internal/record"
	"github.com/verte-zerg/attentive/internal/source"
	"github.com/verte-zerg/attentive/internal/timer"
)

// Threshold selects which classifier threshold a command adjusts.
type Threshold int

const (
	// FaceThreshold bounds the nose offset from the face center.
	FaceThreshold Threshold = iota
	// EyeThreshold bounds the averaged iris offset within the eyes.
	EyeThreshold
)

// String returns "face" or "eye", as used in logs and the monitor.
func (t Threshold) String() string {
	if t == EyeThreshold {
		return "eye"
	}
	return "face"
}

// Options configures a new Engine.
type Options struct {
	Settings model.Settings
	// Clock defaults to clock.Wall.
	Clock clock.Clock
	Sink  record.Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// SessionID defaults to a random UUID.
	SessionID string
}

// Snapshot is the engine state after a tick or command.
type Snapshot struct {
	SessionID      string
	Time           time.Time
	Classification model.ClassificationResult
	State          model.AttentionState
	Pending        bool
	Paused         bool
	Closed         bool
	SessionElapsed time.Duration
	Attentive      time.Duration
	Distraction    time.Duration
	AttentionPct   float64
	Thresholds     gaze.Thresholds
	Alert          bool
}

// Engine owns one monitoring session.
type Engine struct {
	mu sync.Mutex

	clock     clock.Clock
	logger    *slog.Logger
	settings  model.Settings
	sessionID string
	metrics   *Metrics

	classifier *gaze.Classifier
	machine    *hysteresis.Machine
	timer      *timer.Timer
	samples    *record.SampleLogger
	summary    *record.SummaryWriter

	last    model.ClassificationResult
	paused  bool
	alerted bool
	ticks   int64
	closed  bool
	result  model.SummaryRecord
}

// New starts a session at the clock's current time.
func New(opts Options) (*Engine, error) {
	if opts.Sink == nil {
		return nil, errors.New("engine requires a sink")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Wall
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	settings := opts.Settings.Clamp()

	e := &Engine{
		clock:      clk,
		logger:     logger.With("component", "engine", "session", sessionID),
		settings:   settings,
		sessionID:  sessionID,
		metrics:    &Metrics{},
		classifier: gaze.New(settings.FaceThreshold, settings.EyeThreshold),
		samples:    record.NewSampleLogger(opts.Sink, settings.LogInterval),
		summary:    record.NewSummaryWriter(opts.Sink),
	}
	e.timer, e.machine = e.newEpoch(clk.Now())
	e.logger.Info("session started",
		"face_threshold", settings.FaceThreshold,
		"eye_threshold", settings.EyeThreshold,
		"hysteresis", settings.HysteresisDelay,
		"log_interval", settings.LogInterval,
	)
	return e, nil
}

// newEpoch returns a fresh timer and debounce machine starting at now.
func (e *Engine) newEpoch(now time.Time) (*timer.Timer, *hysteresis.Machine) {
	return timer.New(now), hysteresis.New(e.settings.HysteresisDelay, e.settings.SeedFromFirst)
}

// SessionID returns the session identifier.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Metrics returns the engine counters.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Settings returns the current settings.
func (e *Engine) Settings() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Tick runs one frame through the pipeline. A nil frame means no face.
// Ticks are ignored while paused or after Close.
func (e *Engine) Tick(ctx context.Context, frame *model.LandmarkFrame) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	if e.paused || e.closed {
		return e.snapshotLocked(now)
	}
	e.ticks++

	res := e.classifier.Classify(frame)
	e.last = res
	e.metrics.recordFrame(res.FaceDetected, now)

	state, changed := e.machine.Observe(res.Attentive(), now)
	if changed {
		e.metrics.recordTransition()
		e.logger.Debug("state changed", "state", state.String())
	}
	e.timer.Update(state == model.Attentive, now)
	e.checkAlertLocked(state)

	rec := model.SampleRecord{
		SessionID:        e.sessionID,
		Timestamp:        now,
		Attentive:        state == model.Attentive,
		Classification:   res,
		SessionSeconds:   e.timer.SessionElapsed(now).Seconds(),
		AttentionSeconds: e.timer.AttentiveDuration().Seconds(),
		AttentionPct:     e.timer.AttentionPercentage(now),
	}
	emitted, err := e.samples.Log(ctx, rec, now)
	switch {
	case err != nil:
		e.metrics.recordSinkError()
		e.logger.Warn("dropped sample", "err", err)
	case emitted:
		e.metrics.recordSample()
	}
	return e.snapshotLocked(now)
}

func (e *Engine) checkAlertLocked(state model.AttentionState) {
	if state == model.Attentive {
		e.alerted = false
		return
	}
	streak := e.timer.CurrentDistraction()
	if !e.alerted && streak >= e.settings.AlertDelay {
		e.alerted = true
		e.logger.Warn("distraction alert", "streak", streak.Round(time.Millisecond))
	}
}

// Snapshot returns the current state without ticking.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.clock.Now())
}

func (e *Engine) snapshotLocked(now time.Time) Snapshot {
	state := e.machine.State()
	_, pending := e.machine.Pending()
	return Snapshot{
		SessionID:      e.sessionID,
		Time:           now,
		Classification: e.last,
		State:          state,
		Pending:        pending,
		Paused:         e.paused,
		Closed:         e.closed,
		SessionElapsed: e.timer.SessionElapsed(now),
		Attentive:      e.timer.AttentiveDuration(),
		Distraction:    e.timer.CurrentDistraction(),
		AttentionPct:   e.timer.AttentionPercentage(now),
		Thresholds:     e.classifier.Thresholds(),
		Alert:          e.alerted,
	}
}

// Reset starts a new epoch: timing and debounce state are reinitialized,
// while the sample gate and the session ID carry over.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	e.timer, e.machine = e.newEpoch(now)
	if e.paused {
		e.timer.Pause(now)
	}
	e.last = model.ClassificationResult{}
	e.alerted = false
	e.logger.Info("session reset")
}

// rebase restarts the epoch at the clock's time if no tick has run yet.
func (e *Engine) rebase() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ticks > 0 {
		return
	}
	now := e.clock.Now()
	e.timer, e.machine = e.newEpoch(now)
	if e.paused {
		e.timer.Pause(now)
	}
}

// Pause suspends tick processing.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked()
}

func (e *Engine) pauseLocked() {
	if e.paused {
		return
	}
	e.paused = true
	e.timer.Pause(e.clock.Now())
	e.logger.Info("session paused")
}

// Resume continues tick processing. Time spent paused is not counted, and
// any candidate state from before the pause is dropped.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumeLocked()
}

func (e *Engine) resumeLocked() {
	if !e.paused {
		return
	}
	e.paused = false
	e.timer.Resume(e.clock.Now())
	e.machine.ClearPending()
	e.logger.Info("session resumed")
}

// TogglePause flips between paused and running and reports the new state.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		e.resumeLocked()
	} else {
		e.pauseLocked()
	}
	return e.paused
}

// AdjustThreshold moves a threshold by steps increments and returns the
// clamped result.
func (e *Engine) AdjustThreshold(target Threshold, steps int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var v float64
	if target == EyeThreshold {
		v = e.classifier.AdjustEye(steps)
		e.settings.EyeThreshold = v
	} else {
		v = e.classifier.AdjustFace(steps)
		e.settings.FaceThreshold = v
	}
	e.logger.Info("threshold adjusted", "target", target.String(), "value", v)
	return v
}

// SetFaceThreshold sets the face threshold, clamped.
func (e *Engine) SetFaceThreshold(v float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.FaceThreshold = e.classifier.SetFaceThreshold(v)
	return e.settings.FaceThreshold
}

// SetEyeThreshold sets the eye threshold, clamped.
func (e *Engine) SetEyeThreshold(v float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.EyeThreshold = e.classifier.SetEyeThreshold(v)
	return e.settings.EyeThreshold
}

// SetHysteresisDelay sets the debounce delay, clamped.
func (e *Engine) SetHysteresisDelay(d time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.HysteresisDelay = e.machine.SetDelay(d)
	return e.settings.HysteresisDelay
}

// SetLogInterval sets the sample interval, clamped.
func (e *Engine) SetLogInterval(d time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.LogInterval = e.samples.SetInterval(d)
	return e.settings.LogInterval
}

// SetAlertDelay sets how long a distraction streak runs before alerting.
func (e *Engine) SetAlertDelay(d time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.AlertDelay = model.ClampDuration(d, model.MinAlertDelay, model.MaxAlertDelay)
	return e.settings.AlertDelay
}

// Apply runs a named command from a source stream or key binding.
func (e *Engine) Apply(cmd string) error {
	switch cmd {
	case source.CommandReset:
		e.Reset()
	case source.CommandPause:
		e.Pause()
	case source.CommandResume:
		e.Resume()
	case source.CommandToggle:
		e.TogglePause()
	case source.CommandFaceUp:
		e.AdjustThreshold(FaceThreshold, 1)
	case source.CommandFaceDn:
		e.AdjustThreshold(FaceThreshold, -1)
	case source.CommandEyeUp:
		e.AdjustThreshold(EyeThreshold, 1)
	case source.CommandEyeDn:
		e.AdjustThreshold(EyeThreshold, -1)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// Close ends the session and writes its summary. Later calls return the same
// summary without writing again.
func (e *Engine) Close(ctx context.Context) (model.SummaryRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.result, nil
	}
	now := e.clock.Now()
	e.closed = true
	e.result = model.SummaryRecord{
		SessionID:        e.sessionID,
		Start:            e.timer.Start(),
		End:              now,
		TotalSeconds:     e.timer.SessionElapsed(now).Seconds(),
		AttentionSeconds: e.timer.AttentiveDuration().Seconds(),
		AttentionPct:     e.timer.AttentionPercentage(now),
	}
	if _, err := e.summary.Write(ctx, e.result); err != nil {
		e.metrics.recordSinkError()
		e.logger.Warn("failed to write summary", "err", err)
		return e.result, fmt.Errorf("failed to write summary: %w", err)
	}
	attrs := append([]any{
		"total_sec", e.result.TotalSeconds,
		"attention_sec", e.result.AttentionSeconds,
		"attention_pct", e.result.AttentionPct,
	}, e.metrics.LogAttrs()...)
	e.logger.Info("session closed", attrs...)
	return e.result, nil
}

type settableClock interface {
	Set(time.Time)
}

// Run feeds events from src until it is exhausted or ctx is canceled, then
// closes the session. When the engine clock is settable, timestamped events
// drive it, so a recorded stream replays with its original timing.
func (e *Engine) Run(ctx context.Context, src source.Source) (model.SummaryRecord, error) {
	settable, replay := e.clock.(settableClock)
	first := true
	var runErr error
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				runErr = fmt.Errorf("failed to read source: %w", err)
			}
			break
		}
		if replay && ev.HasTime {
			settable.Set(ev.Time)
			if first {
				e.rebase()
			}
			first = false
		}
		if ev.IsCommand() {
			if err := e.Apply(ev.Command); err != nil {
				e.logger.Warn("ignored command", "err", err)
			}
			continue
		}
		e.Tick(ctx, ev.Frame)
	}
	rec, err := e.Close(context.WithoutCancel(ctx))
	return rec, errors.Join(runErr, err)
}
