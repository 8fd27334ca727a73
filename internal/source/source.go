// Package source reads landmark frames and commands from an external
// extractor's output stream.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/attentive/internal/model"
)

// Commands accepted in the stream and from the monitor keys.
const (
	CommandReset  = "reset"
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandToggle = "toggle"
	CommandFaceUp = "face+"
	CommandFaceDn = "face-"
	CommandEyeUp  = "eye+"
	CommandEyeDn  = "eye-"
)

// Event is one item from a source: either a frame tick or a command.
// A tick with a nil Frame means no face was detected.
type Event struct {
	Time    time.Time
	HasTime bool
	Frame   *model.LandmarkFrame
	Command string
}

// IsCommand reports whether the event carries a command instead of a frame.
func (e Event) IsCommand() bool {
	return e.Command != ""
}

// Source yields events until it returns io.EOF.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

type line struct {
	T       *float64             `json:"t"`
	Mesh    []model.Point        `json:"mesh"`
	Face    *model.LandmarkFrame `json:"face"`
	Command string               `json:"command"`
}

// JSONLines decodes one JSON object per line.
type JSONLines struct {
	scanner *bufio.Scanner
	lineNo  int
}

// NewJSONLines reads events from r.
func NewJSONLines(r io.Reader) *JSONLines {
	scanner := bufio.NewScanner(r)
	// A full mesh line runs to ~20KB.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &JSONLines{scanner: scanner}
}

// Next implements Source.
func (j *JSONLines) Next(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		if !j.scanner.Scan() {
			if err := j.scanner.Err(); err != nil {
				return Event{}, fmt.Errorf("failed to read stream: %w", err)
			}
			return Event{}, io.EOF
		}
		j.lineNo++
		text := strings.TrimSpace(j.scanner.Text())
		if text == "" {
			continue
		}
		ev, err := decodeLine(text)
		if err != nil {
			return Event{}, fmt.Errorf("line %d: %w", j.lineNo, err)
		}
		return ev, nil
	}
}

func decodeLine(text string) (Event, error) {
	var l line
	if err := json.Unmarshal([]byte(text), &l); err != nil {
		return Event{}, err
	}
	var ev Event
	if l.T != nil {
		if math.IsNaN(*l.T) || math.IsInf(*l.T, 0) || *l.T < 0 {
			return Event{}, fmt.Errorf("invalid timestamp %v", *l.T)
		}
		sec, frac := math.Modf(*l.T)
		ev.Time = time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC()
		ev.HasTime = true
	}
	if l.Command != "" {
		cmd := strings.ToLower(strings.TrimSpace(l.Command))
		if !ValidCommand(cmd) {
			return Event{}, fmt.Errorf("unknown command %q", l.Command)
		}
		ev.Command = cmd
		return ev, nil
	}
	switch {
	case l.Face != nil:
		ev.Frame = l.Face
	case len(l.Mesh) > 0:
		frame, err := model.FromMesh(l.Mesh)
		if err != nil {
			return Event{}, err
		}
		ev.Frame = frame
	}
	return ev, nil
}

// ValidCommand reports whether cmd is a known command name.
func ValidCommand(cmd string) bool {
	switch cmd {
	case CommandReset, CommandPause, CommandResume, CommandToggle,
		CommandFaceUp, CommandFaceDn, CommandEyeUp, CommandEyeDn:
		return true
	}
	return false
}

// Slice replays a fixed list of events. It is used by tests and demos.
type Slice struct {
	events []Event
	pos    int
}

// NewSlice returns a source over events.
func NewSlice(events ...Event) *Slice {
	return &Slice{events: events}
}

// Next implements Source.
func (s *Slice) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}
