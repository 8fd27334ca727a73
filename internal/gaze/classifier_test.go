package gaze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/attentive/internal/model"
)

// frameWith builds a face whose box spans x 0.3–0.7 and y 0.2–0.8, with the
// nose and both irises displaced by the given fractions of their boxes.
func frameWith(noseX, noseY, gazeX, gazeY float64) *model.LandmarkFrame {
	eye := func(cx float64) model.Eye {
		return model.Eye{
			Left:   model.Point{X: cx - 0.05, Y: 0.40},
			Right:  model.Point{X: cx + 0.05, Y: 0.40},
			Top:    model.Point{X: cx, Y: 0.38},
			Bottom: model.Point{X: cx, Y: 0.42},
			Iris:   model.Point{X: cx + gazeX*0.1, Y: 0.40 + gazeY*0.04},
		}
	}
	return &model.LandmarkFrame{
		NoseTip:    model.Point{X: 0.5 + noseX*0.4, Y: 0.5 + noseY*0.6},
		Forehead:   model.Point{X: 0.5, Y: 0.2},
		Chin:       model.Point{X: 0.5, Y: 0.8},
		LeftCheek:  model.Point{X: 0.3, Y: 0.5},
		RightCheek: model.Point{X: 0.7, Y: 0.5},
		LeftEye:    eye(0.40),
		RightEye:   eye(0.60),
	}
}

func TestClassifyLookingAtScreen(t *testing.T) {
	c := New(0.31, 0.22)
	res := c.Classify(frameWith(0.10, 0.05, 0.10, 0.08))

	require.True(t, res.FaceDetected)
	assert.InDelta(t, 0.10, res.NoseOffsetX, 1e-9)
	assert.InDelta(t, 0.05, res.NoseOffsetY, 1e-9)
	assert.InDelta(t, 0.10, res.EyeGazeX, 1e-9)
	assert.InDelta(t, 0.08, res.EyeGazeY, 1e-9)
	assert.True(t, res.FaceLooking)
	assert.True(t, res.EyesLooking)
	assert.True(t, res.Attentive())
}

func TestClassifyNoFace(t *testing.T) {
	c := New(0.31, 0.22)
	res := c.Classify(nil)
	assert.Equal(t, model.ClassificationResult{}, res)
	assert.False(t, res.Attentive())
}

func TestClassifyLookingAway(t *testing.T) {
	tests := []struct {
		name       string
		frame      *model.LandmarkFrame
		wantFace   bool
		wantEyes   bool
		wantAttend bool
	}{
		{"head turned", frameWith(0.40, 0, 0, 0), false, true, false},
		{"head tilted", frameWith(0, -0.35, 0, 0), false, true, false},
		{"eyes sideways", frameWith(0, 0, 0.30, 0), true, false, false},
		{"eyes down", frameWith(0, 0, 0, -0.25), true, false, false},
		{"centered", frameWith(0, 0, 0, 0), true, true, true},
	}
	c := New(0.31, 0.22)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(tt.frame)
			assert.Equal(t, tt.wantFace, res.FaceLooking)
			assert.Equal(t, tt.wantEyes, res.EyesLooking)
			assert.Equal(t, tt.wantAttend, res.Attentive())
		})
	}
}

func TestClassifyAveragesAbsoluteGaze(t *testing.T) {
	f := frameWith(0, 0, 0, 0)
	// Irises pushed in opposite directions must not cancel out.
	f.LeftEye.Iris.X = 0.40 - 0.02
	f.RightEye.Iris.X = 0.60 + 0.04
	res := New(0.31, 0.22).Classify(f)
	assert.InDelta(t, 0.30, res.EyeGazeX, 1e-9)
	assert.False(t, res.EyesLooking)
}

func TestClassifyDegenerateBoxesAreNeutral(t *testing.T) {
	f := frameWith(0.45, 0.45, 0.45, 0.45)
	f.RightCheek.X = f.LeftCheek.X
	f.LeftEye.Top.Y = f.LeftEye.Bottom.Y
	f.RightEye.Right.X = f.RightEye.Left.X

	res := New(0.31, 0.22).Classify(f)
	assert.Zero(t, res.NoseOffsetX)
	assert.Zero(t, res.NoseOffsetY)
	assert.Zero(t, res.EyeGazeX)
	assert.Zero(t, res.EyeGazeY)
	assert.True(t, res.Attentive())
}

func TestThresholdsAreClamped(t *testing.T) {
	c := New(2, -1)
	assert.Equal(t, Thresholds{Face: model.MaxFaceThreshold, Eye: model.MinEyeThreshold}, c.Thresholds())

	assert.Equal(t, model.MinFaceThreshold, c.SetFaceThreshold(0))
	assert.Equal(t, model.MaxEyeThreshold, c.SetEyeThreshold(0.9))
}

func TestAdjustStepsAndClamps(t *testing.T) {
	c := New(0.31, 0.22)
	assert.InDelta(t, 0.33, c.AdjustFace(1), 1e-9)
	assert.InDelta(t, 0.20, c.AdjustEye(-1), 1e-9)

	for i := 0; i < 50; i++ {
		c.AdjustFace(1)
		c.AdjustEye(-1)
	}
	assert.Equal(t, model.MaxFaceThreshold, c.Thresholds().Face)
	assert.Equal(t, model.MinEyeThreshold, c.Thresholds().Eye)
}
