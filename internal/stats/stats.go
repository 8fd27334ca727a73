// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/attentive/internal/model"
)

const sparkChars = " .:-=+*#%@"

// FormatClock renders a duration as HH:MM:SS, truncating fractions.
// Hours are not wrapped at 24.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// FormatClockSeconds is FormatClock for fractional seconds.
func FormatClockSeconds(sec float64) string {
	return FormatClock(time.Duration(sec * float64(time.Second)))
}

// Totals aggregates a set of session summaries.
type Totals struct {
	Sessions         int
	TotalSeconds     float64
	AttentionSeconds float64
	// OverallPct weights each session by its length.
	OverallPct float64
	AvgPct     float64
	BestPct    float64
	WorstPct   float64
}

// ComputeTotals sums sessions. An empty set yields zero totals.
func ComputeTotals(sessions []model.SummaryAggregate) Totals {
	var t Totals
	if len(sessions) == 0 {
		return t
	}
	t.Sessions = len(sessions)
	t.WorstPct = math.Inf(1)
	var pctSum float64
	for _, s := range sessions {
		t.TotalSeconds += s.TotalSeconds
		t.AttentionSeconds += s.AttentionSeconds
		pctSum += s.AttentionPct
		if s.AttentionPct > t.BestPct {
			t.BestPct = s.AttentionPct
		}
		if s.AttentionPct < t.WorstPct {
			t.WorstPct = s.AttentionPct
		}
	}
	t.AvgPct = pctSum / float64(len(sessions))
	if t.TotalSeconds > 0 {
		t.OverallPct = 100 * t.AttentionSeconds / t.TotalSeconds
	} else {
		t.OverallPct = 100
	}
	return t
}

// Rates returns each session's attention percentage in order.
func Rates(sessions []model.SummaryAggregate) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = s.AttentionPct
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints aggregate figures for sessions.
func RenderSummary(w io.Writer, sessions []model.SummaryAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	t := ComputeTotals(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", t.Sessions),
		fmt.Sprintf("Total time: %s", FormatClockSeconds(t.TotalSeconds)),
		fmt.Sprintf("Attentive time: %s", FormatClockSeconds(t.AttentionSeconds)),
		fmt.Sprintf("Overall rate: %.1f%%", t.OverallPct),
		fmt.Sprintf("Avg rate: %.1f%%", t.AvgPct),
		fmt.Sprintf("Best rate: %.1f%%", t.BestPct),
		fmt.Sprintf("Worst rate: %.1f%%", t.WorstPct),
	}
	if len(sessions) > 1 {
		lines = append(lines, fmt.Sprintf("Trend: [%s]", Sparkline(Rates(sessions))))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSessionTable prints one row per session.
func RenderSessionTable(w io.Writer, sessions []model.SummaryAggregate) error {
	return RenderRanked(w, "Sessions", sessions)
}

// SessionRows returns table headers and formatted cells for sessions.
func SessionRows(sessions []model.SummaryAggregate) ([]string, [][]string) {
	headers := []string{"Started", "Duration", "Attentive", "Rate"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.Start.Local().Format("2006-01-02 15:04"),
			FormatClockSeconds(s.TotalSeconds),
			FormatClockSeconds(s.AttentionSeconds),
			fmt.Sprintf("%.1f%%", s.AttentionPct),
		})
	}
	return headers, rows
}

// RenderRateCurve plots per-session attention rates on a fixed 0-100 scale.
func RenderRateCurve(w io.Writer, sessions []model.SummaryAggregate, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	rates := Rates(sessions)
	series := []Series{{Name: "Rate", Values: rates, Range: PercentRange}}
	if window > 1 {
		series = append(series, Series{
			Name:   fmt.Sprintf("Avg(%d)", window),
			Values: MovingAverage(rates, window),
			Range:  PercentRange,
		})
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Attention Rate", series, width, height, useColor)
}

// RenderRanked prints a titled session table, skipping empty lists.
func RenderRanked(w io.Writer, title string, sessions []model.SummaryAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers, rows := SessionRows(sessions)
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
