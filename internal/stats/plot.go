// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is one line on a rate chart, such as per-session attention rates
// or their moving average.
type Series struct {
	Name   string
	Values []float64
	// Range pins the vertical scale. Nil scales to the series' own min/max.
	Range *Range
}

// Range is a fixed vertical scale.
type Range struct {
	Min float64
	Max float64
}

// PercentRange is the scale for attention rates.
var PercentRange = &Range{Min: 0, Max: 100}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 4
	axisSeparator       = " │ "
	scaleNote           = "Scaled per series; see min/max below."
	fixedScaleNote      = "Fixed scale."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	brailleBase         = 0x2800
)

// dashPattern draws a dot on column x when x%period < on.
type dashPattern struct {
	name   string
	period int
	on     int
}

func (p dashPattern) draws(x int) bool {
	if p.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%p.period < p.on
}

var dashPatterns = []dashPattern{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var seriesColors = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[34m", // blue
}

// brailleBits maps a dot inside a 2x4 braille cell to its bit.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// PlotSeries renders a braille chart of the series without forced color.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return plotSeries(w, title, series, width, height, false)
}

// PlotSeriesWithColor renders a braille chart, forcing ANSI color when
// forceColor is set.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	return plotSeries(w, title, series, width, height, forceColor)
}

func plotSeries(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	cols := make([]Series, len(series))
	for i, s := range series {
		cols[i] = Series{Name: s.Name, Values: fitToWidth(s.Values, width), Range: s.Range}
	}
	ranges, fixed := scales(cols)

	cv := newCanvas(width, height, len(cols))
	for i, s := range cols {
		cv.trace(i, s.Values, ranges[i], dashPatterns[i%len(dashPatterns)])
	}

	useColor := colorEnabled(w, forceColor)
	var lines []string
	if title != "" {
		lines = append(lines, title)
	}
	if fixed {
		lines = append(lines, fixedScaleNote)
	} else {
		lines = append(lines, scaleNote)
	}
	for _, s := range cols {
		lo, hi := bounds(s.Values)
		lines = append(lines, fmt.Sprintf("%s: min=%.2f max=%.2f", s.Name, lo, hi))
	}
	labels := axisLabels(height, ranges[0], fixed)
	for y := 0; y < height; y++ {
		lines = append(lines, fmt.Sprintf("%*s%s%s", axisLabelWidth, labels[y], axisSeparator, cv.renderRow(y, useColor)))
	}
	lines = append(lines, legend(cols, useColor), "")

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// scales picks each series' vertical range and reports whether every
// series uses a pinned one.
func scales(series []Series) ([]Range, bool) {
	out := make([]Range, len(series))
	fixed := true
	for i, s := range series {
		if s.Range != nil && s.Range.Max > s.Range.Min {
			out[i] = *s.Range
			continue
		}
		fixed = false
		lo, hi := bounds(s.Values)
		if math.Abs(hi-lo) < 1e-9 {
			lo--
			hi++
		}
		out[i] = Range{Min: lo, Max: hi}
	}
	return out, fixed
}

// axisLabels labels the top, middle and bottom rows. A fixed scale shows its
// percentages; a per-series scale can only show relative positions.
func axisLabels(height int, rng Range, fixed bool) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	top, mid, bottom := "max", "mid", "min"
	if fixed {
		top = fmt.Sprintf("%.0f%%", rng.Max)
		mid = fmt.Sprintf("%.0f%%", (rng.Min+rng.Max)/2)
		bottom = fmt.Sprintf("%.0f%%", rng.Min)
	}
	labels[0] = top
	if height > 2 {
		labels[height/2] = mid
	}
	if height > 1 {
		labels[height-1] = bottom
	}
	return labels
}

// PlotWidthFor returns the chart width that fits beside the axis within totalWidth.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	width := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func colorEnabled(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// fitToWidth maps session values onto width columns: many sessions are
// averaged per column, few are linearly interpolated.
func fitToWidth(values []float64, width int) []float64 {
	switch {
	case len(values) == 0 || width <= 0:
		return nil
	case len(values) == width:
		return append([]float64(nil), values...)
	case len(values) > width:
		return bucketMeans(values, width)
	default:
		return interpolate(values, width)
	}
}

func bucketMeans(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	for i := range out {
		start := i * n / width
		end := (i + 1) * n / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func interpolate(values []float64, width int) []float64 {
	out := make([]float64, width)
	last := len(values) - 1
	if last == 0 || width == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := range out {
		pos := float64(i) * float64(last) / float64(width-1)
		idx := int(pos)
		if idx >= last {
			out[i] = values[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx] + (values[idx+1]-values[idx])*frac
	}
	return out
}

func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := rune(brailleBase + int(brailleBits[0][0]))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, dashPatterns[i%len(dashPatterns)].name)
		if useColor {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// canvas holds one braille layer per series. Each cell packs a 2x4 block of
// dots, so a canvas of width x height cells has 2*width x 4*height dots.
type canvas struct {
	width  int
	height int
	layers [][][]uint8
}

func newCanvas(width, height, layers int) *canvas {
	c := &canvas{width: width, height: height, layers: make([][][]uint8, layers)}
	for i := range c.layers {
		rows := make([][]uint8, height)
		for y := range rows {
			rows[y] = make([]uint8, width)
		}
		c.layers[i] = rows
	}
	return c
}

// rowFor maps v to a dot row, 0 at the top of the range.
func (c *canvas) rowFor(v float64, rng Range) int {
	dots := c.height * 4
	if dots <= 1 {
		return 0
	}
	pos := (v - rng.Min) / (rng.Max - rng.Min)
	row := int(math.Round((1 - pos) * float64(dots-1)))
	return max(0, min(dots-1, row))
}

func (c *canvas) dot(layer, x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.layers[layer][cy][cx] |= brailleBits[x%2][y%4]
}

// trace joins consecutive values with straight segments on layer.
func (c *canvas) trace(layer int, values []float64, rng Range, pattern dashPattern) {
	prevX, prevY := -1, -1
	for i, v := range values {
		x, y := i*2, c.rowFor(v, rng)
		if prevX < 0 {
			if pattern.draws(x) {
				c.dot(layer, x, y)
			}
		} else {
			segment(prevX, prevY, x, y, func(px, py int) {
				if pattern.draws(px) {
					c.dot(layer, px, py)
				}
			})
		}
		prevX, prevY = x, y
	}
}

// cell merges every layer at a cell. The first layer with dots picks the color.
func (c *canvas) cell(x, y int) (uint8, int) {
	var mask uint8
	layer := -1
	for i, rows := range c.layers {
		bits := rows[y][x]
		if bits == 0 {
			continue
		}
		if layer < 0 {
			layer = i
		}
		mask |= bits
	}
	return mask, layer
}

func (c *canvas) renderRow(y int, useColor bool) string {
	var b strings.Builder
	for x := 0; x < c.width; x++ {
		mask, layer := c.cell(x, y)
		ch := rune(brailleBase + int(mask))
		if useColor && layer >= 0 {
			b.WriteString(seriesColors[layer%len(seriesColors)])
			b.WriteRune(ch)
			b.WriteString(colorReset)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// segment calls plot for each dot on the line from (x0, y0) to (x1, y1),
// stepping along the longer axis.
func segment(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		plot(x0, y0)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		plot(x0+int(math.Round(t*float64(dx))), y0+int(math.Round(t*float64(dy))))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
