// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Point is a landmark position normalized to image dimensions.
type Point struct {
	X float64
	Y float64
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a point from [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(xy) < 2 {
		return fmt.Errorf("point: expected [x, y], got %d values", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Eye holds the iris center and the four corner points bounding one eye.
type Eye struct {
	Iris   Point `json:"iris"`
	Left   Point `json:"left"`
	Right  Point `json:"right"`
	Top    Point `json:"top"`
	Bottom Point `json:"bottom"`
}

// LandmarkFrame is the fixed set of named landmarks for one detected face.
// A nil *LandmarkFrame means no face was found in the frame.
type LandmarkFrame struct {
	NoseTip    Point `json:"nose_tip"`
	Forehead   Point `json:"forehead"`
	Chin       Point `json:"chin"`
	LeftCheek  Point `json:"left_cheek"`
	RightCheek Point `json:"right_cheek"`
	LeftEye    Eye   `json:"left_eye"`
	RightEye   Eye   `json:"right_eye"`
}

// ClassificationResult is the per-tick output of the gaze classifier.
type ClassificationResult struct {
	FaceDetected bool
	FaceLooking  bool
	EyesLooking  bool
	NoseOffsetX  float64
	NoseOffsetY  float64
	// EyeGazeX and EyeGazeY are averaged absolute offsets across both eyes.
	EyeGazeX float64
	EyeGazeY float64
}

// Attentive reports the combined raw attentiveness for the tick.
func (r ClassificationResult) Attentive() bool {
	return r.FaceDetected && r.FaceLooking && r.EyesLooking
}

// AttentionState is the debounced attentiveness state.
type AttentionState int

const (
	Distracted AttentionState = iota
	Attentive
)

// StateFor maps a raw boolean to a state.
func StateFor(attentive bool) AttentionState {
	if attentive {
		return Attentive
	}
	return Distracted
}

func (s AttentionState) String() string {
	if s == Attentive {
		return "ATTENTIVE"
	}
	return "DISTRACTED"
}

// SampleRecord is one rate-limited snapshot of the pipeline.
type SampleRecord struct {
	SessionID        string
	Timestamp        time.Time
	Attentive        bool
	Classification   ClassificationResult
	SessionSeconds   float64
	AttentionSeconds float64
	AttentionPct     float64
}

// SummaryRecord is written once per session.
type SummaryRecord struct {
	SessionID        string
	Start            time.Time
	End              time.Time
	TotalSeconds     float64
	AttentionSeconds float64
	AttentionPct     float64
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Since *time.Time
	Last  int
}

// SummaryAggregate is a stored session summary used for reporting.
type SummaryAggregate struct {
	ID int64
	SummaryRecord
}
