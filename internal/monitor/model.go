// Package monitor hosts a live attention session in a Bubble Tea program.
// Frames are read from a source on a command goroutine and delivered to
// Update as messages; keys map to engine commands.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/attentive/internal/engine"
	"github.com/verte-zerg/attentive/internal/model"
	"github.com/verte-zerg/attentive/internal/source"
	"github.com/verte-zerg/attentive/internal/stats"
)

const refreshInterval = 250 * time.Millisecond

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Width(12)
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	attentiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#52C41A"))
	distractStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	alertStyle     = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#A8071A")).
			Padding(0, 1)
	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

type eventMsg source.Event

type sourceDoneMsg struct {
	err error
}

type refreshMsg time.Time

// Model implements tea.Model around an engine.
type Model struct {
	ctx    context.Context
	engine *engine.Engine
	src    source.Source

	snap   engine.Snapshot
	target engine.Threshold
	width  int

	ended  bool
	err    error
	notice string
}

// New returns a monitor reading events from src.
func New(ctx context.Context, eng *engine.Engine, src source.Source) *Model {
	return &Model{
		ctx:    ctx,
		engine: eng,
		src:    src,
		snap:   eng.Snapshot(),
		target: engine.FaceThreshold,
	}
}

// Err returns the source error that ended input, if any.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.next(), refresh())
}

func (m *Model) next() tea.Cmd {
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		ev, err := src.Next(ctx)
		if err != nil {
			return sourceDoneMsg{err: err}
		}
		return eventMsg(ev)
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case eventMsg:
		ev := source.Event(msg)
		if ev.IsCommand() {
			if err := m.engine.Apply(ev.Command); err != nil {
				m.notice = err.Error()
			}
			m.snap = m.engine.Snapshot()
		} else {
			m.snap = m.engine.Tick(m.ctx, ev.Frame)
		}
		return m, m.next()
	case sourceDoneMsg:
		m.ended = true
		if !errors.Is(msg.err, io.EOF) && m.ctx.Err() == nil {
			m.err = msg.err
		}
		m.snap = m.engine.Snapshot()
		return m, nil
	case refreshMsg:
		m.snap = m.engine.Snapshot()
		return m, refresh()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		m.engine.Reset()
		m.notice = "session reset"
	case "p", " ":
		if m.engine.TogglePause() {
			m.notice = "paused"
		} else {
			m.notice = "resumed"
		}
	case "f":
		m.target = engine.FaceThreshold
	case "e":
		m.target = engine.EyeThreshold
	case "+", "=", "up":
		v := m.engine.AdjustThreshold(m.target, 1)
		m.notice = fmt.Sprintf("%s threshold %.2f", m.target, v)
	case "-", "_", "down":
		v := m.engine.AdjustThreshold(m.target, -1)
		m.notice = fmt.Sprintf("%s threshold %.2f", m.target, v)
	}
	m.snap = m.engine.Snapshot()
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	return renderStatus(m.snap, m.target, m.width, m.ended, m.err, m.notice)
}

func renderStatus(s engine.Snapshot, target engine.Threshold, width int, ended bool, err error, notice string) string {
	state := attentiveStyle.Render(s.State.String())
	if s.State == model.Distracted {
		state = distractStyle.Render(s.State.String())
	}
	if s.Pending {
		state += mutedStyle.Render(" (changing)")
	}
	if s.Paused {
		state += mutedStyle.Render(" [paused]")
	}

	c := s.Classification
	face := "not detected"
	if c.FaceDetected {
		face = fmt.Sprintf("%s  nose %+.3f %+.3f", lookingLabel(c.FaceLooking), c.NoseOffsetX, c.NoseOffsetY)
	}
	eyes := "-"
	if c.FaceDetected {
		eyes = fmt.Sprintf("%s  gaze %.3f %.3f", lookingLabel(c.EyesLooking), c.EyeGazeX, c.EyeGazeY)
	}
	faceMark, eyeMark := " ", " "
	if target == engine.EyeThreshold {
		eyeMark = ">"
	} else {
		faceMark = ">"
	}

	rows := [][2]string{
		{"State", state},
		{"Session", stats.FormatClock(s.SessionElapsed)},
		{"Attentive", fmt.Sprintf("%s  (%.1f%%)", stats.FormatClock(s.Attentive), s.AttentionPct)},
		{"Distracted", stats.FormatClock(s.Distraction)},
		{"Face", face},
		{"Eyes", eyes},
		{"Thresholds", fmt.Sprintf("%sface %.2f  %seye %.2f", faceMark, s.Thresholds.Face, eyeMark, s.Thresholds.Eye)},
	}
	lines := []string{titleStyle.Render("attentive") + mutedStyle.Render("  session "+shortID(s.SessionID))}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+valueStyle.Render(r[1]))
	}
	if s.Alert {
		lines = append(lines, "", alertStyle.Render("Distracted for "+stats.FormatClock(s.Distraction)))
	}
	if ended {
		msg := "input ended, press q to finish"
		if err != nil {
			msg = "input failed: " + err.Error()
		}
		lines = append(lines, "", distractStyle.Render(msg))
	}
	if notice != "" {
		lines = append(lines, "", mutedStyle.Render(notice))
	}

	box := boxStyle
	if width > 4 {
		box = box.MaxWidth(width)
	}
	help := mutedStyle.Render("q quit  r reset  p pause  f/e select  +/- adjust")
	return box.Render(strings.Join(lines, "\n")) + "\n" + help + "\n"
}

func lookingLabel(ok bool) string {
	if ok {
		return "looking"
	}
	return "away"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
