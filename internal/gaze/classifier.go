// Package gaze classifies face landmarks into "looking at screen" signals.
package gaze

import (
	"math"

	"github.com/verte-zerg/attentive/internal/model"
)

// Thresholds bound how far the nose and irises may drift off-center while
// still counting as looking at the screen.
type Thresholds struct {
	Face float64
	Eye  float64
}

// Classifier turns a landmark frame into a ClassificationResult. It holds
// only its thresholds; classification itself is stateless.
type Classifier struct {
	thresholds Thresholds
}

// New returns a Classifier with clamped thresholds.
func New(face, eye float64) *Classifier {
	c := &Classifier{}
	c.SetFaceThreshold(face)
	c.SetEyeThreshold(eye)
	return c
}

// Thresholds returns the current thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// SetFaceThreshold sets the nose offset threshold, clamped to its valid range.
func (c *Classifier) SetFaceThreshold(v float64) float64 {
	c.thresholds.Face = model.ClampFloat(v, model.MinFaceThreshold, model.MaxFaceThreshold)
	return c.thresholds.Face
}

// SetEyeThreshold sets the iris offset threshold, clamped to its valid range.
func (c *Classifier) SetEyeThreshold(v float64) float64 {
	c.thresholds.Eye = model.ClampFloat(v, model.MinEyeThreshold, model.MaxEyeThreshold)
	return c.thresholds.Eye
}

// AdjustFace moves the face threshold by steps*ThresholdStep.
func (c *Classifier) AdjustFace(steps int) float64 {
	return c.SetFaceThreshold(roundStep(c.thresholds.Face + float64(steps)*model.ThresholdStep))
}

// AdjustEye moves the eye threshold by steps*ThresholdStep.
func (c *Classifier) AdjustEye(steps int) float64 {
	return c.SetEyeThreshold(roundStep(c.thresholds.Eye + float64(steps)*model.ThresholdStep))
}

// Classify evaluates one frame. A nil frame yields a fully negative result.
func (c *Classifier) Classify(frame *model.LandmarkFrame) model.ClassificationResult {
	var res model.ClassificationResult
	if frame == nil {
		return res
	}
	res.FaceDetected = true

	res.NoseOffsetX, res.NoseOffsetY = faceOffset(frame)
	res.FaceLooking = math.Abs(res.NoseOffsetX) < c.thresholds.Face &&
		math.Abs(res.NoseOffsetY) < c.thresholds.Face

	lx, ly := eyeOffset(frame.LeftEye)
	rx, ry := eyeOffset(frame.RightEye)
	res.EyeGazeX = (math.Abs(lx) + math.Abs(rx)) / 2
	res.EyeGazeY = (math.Abs(ly) + math.Abs(ry)) / 2
	res.EyesLooking = res.EyeGazeX < c.thresholds.Eye && res.EyeGazeY < c.thresholds.Eye
	return res
}

// faceOffset returns the nose position relative to the face center, as a
// fraction of face width and height. Degenerate boxes give (0, 0).
func faceOffset(f *model.LandmarkFrame) (float64, float64) {
	centerX := (f.LeftCheek.X + f.RightCheek.X) / 2
	centerY := (f.Forehead.Y + f.Chin.Y) / 2
	width := math.Abs(f.RightCheek.X - f.LeftCheek.X)
	height := math.Abs(f.Chin.Y - f.Forehead.Y)
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	return (f.NoseTip.X - centerX) / width, (f.NoseTip.Y - centerY) / height
}

// eyeOffset returns the iris position relative to the eye box center.
func eyeOffset(e model.Eye) (float64, float64) {
	centerX := (e.Left.X + e.Right.X) / 2
	centerY := (e.Top.Y + e.Bottom.Y) / 2
	width := math.Abs(e.Right.X - e.Left.X)
	height := math.Abs(e.Bottom.Y - e.Top.Y)
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	return (e.Iris.X - centerX) / width, (e.Iris.Y - centerY) / height
}

// roundStep drops float noise accumulated by repeated step adjustments.
func roundStep(v float64) float64 {
	return math.Round(v*1000) / 1000
}
