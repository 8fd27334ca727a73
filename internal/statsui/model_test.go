package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/attentive/internal/model"
)

type fakeLister struct {
	sessions []model.SummaryAggregate
	err      error
	lastCfg  model.StatsConfig
}

func (f *fakeLister) ListSummaries(_ context.Context, cfg model.StatsConfig) ([]model.SummaryAggregate, error) {
	f.lastCfg = cfg
	return f.sessions, f.err
}

func sampleSessions() []model.SummaryAggregate {
	base := time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC)
	out := make([]model.SummaryAggregate, 0, 3)
	for i, pct := range []float64{55, 80, 70} {
		out = append(out, model.SummaryAggregate{
			ID: int64(i + 1),
			SummaryRecord: model.SummaryRecord{
				SessionID:        "s",
				Start:            base.Add(time.Duration(i) * time.Hour),
				End:              base.Add(time.Duration(i)*time.Hour + 10*time.Minute),
				TotalSeconds:     600,
				AttentionSeconds: 6 * pct,
				AttentionPct:     pct,
			},
		})
	}
	return out
}

func sized(m *Model) *Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(*Model)
}

func TestOverviewRendersTotals(t *testing.T) {
	m := sized(NewModel(&fakeLister{sessions: sampleSessions()}, model.StatsConfig{}, 2))
	view := m.View()
	for _, want := range []string{"Overview", "Sessions", "00:30:00", "Attention Rate"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view", want)
		}
	}
}

func TestSwitchToSessionsTab(t *testing.T) {
	m := sized(NewModel(&fakeLister{sessions: sampleSessions()}, model.StatsConfig{}, 1))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(*Model)
	if m.activeTab != tabSessions {
		t.Fatalf("expected sessions tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "80.0%") {
		t.Fatalf("expected session rate in table view")
	}
}

func TestFilterAppliesLast(t *testing.T) {
	lister := &fakeLister{sessions: sampleSessions()}
	m := sized(NewModel(lister, model.StatsConfig{}, 1))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m = next.(*Model)
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[1].SetValue("2")
	m.filterInputs[2].SetValue("4")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(*Model)
	if m.filterMode {
		t.Fatalf("expected filter mode to close, error: %s", m.filterError)
	}
	if lister.lastCfg.Last != 2 || m.window != 4 {
		t.Fatalf("unexpected config: last=%d window=%d", lister.lastCfg.Last, m.window)
	}
}

func TestFilterRejectsBadDate(t *testing.T) {
	m := sized(NewModel(&fakeLister{}, model.StatsConfig{}, 1))
	m.filterMode = true
	m.filterInputs[0].SetValue("yesterday")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(*Model)
	if !m.filterMode || !strings.Contains(m.filterError, "since") {
		t.Fatalf("expected since error, got %q", m.filterError)
	}
}

func TestLoadErrorShown(t *testing.T) {
	m := sized(NewModel(&fakeLister{err: errors.New("db locked")}, model.StatsConfig{}, 1))
	if !strings.Contains(m.View(), "db locked") {
		t.Fatalf("expected error in footer")
	}
}

func TestWindowSteps(t *testing.T) {
	if nextWindow(1) != 5 || nextWindow(5) != 10 || nextWindow(7) != 10 {
		t.Fatalf("unexpected next window steps")
	}
	if prevWindow(5) != 1 || prevWindow(10) != 5 || prevWindow(7) != 5 {
		t.Fatalf("unexpected prev window steps")
	}
}
