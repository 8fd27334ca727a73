package model

import "fmt"

// Face mesh indices for the named landmarks (478-point refined mesh).
const (
	meshNoseTip    = 4
	meshForehead   = 10
	meshChin       = 152
	meshLeftCheek  = 234
	meshRightCheek = 454

	meshLeftIris  = 468
	meshRightIris = 473

	meshLeftEyeLeft    = 33
	meshLeftEyeRight   = 133
	meshLeftEyeTop     = 159
	meshLeftEyeBottom  = 145
	meshRightEyeLeft   = 362
	meshRightEyeRight  = 263
	meshRightEyeTop    = 386
	meshRightEyeBottom = 374

	// MeshSize is the minimum number of mesh points FromMesh accepts.
	MeshSize = meshRightIris + 1
)

// FromMesh picks the named landmarks out of a refined face mesh.
func FromMesh(points []Point) (*LandmarkFrame, error) {
	if len(points) < MeshSize {
		return nil, fmt.Errorf("face mesh has %d points, need at least %d", len(points), MeshSize)
	}
	return &LandmarkFrame{
		NoseTip:    points[meshNoseTip],
		Forehead:   points[meshForehead],
		Chin:       points[meshChin],
		LeftCheek:  points[meshLeftCheek],
		RightCheek: points[meshRightCheek],
		LeftEye: Eye{
			Iris:   points[meshLeftIris],
			Left:   points[meshLeftEyeLeft],
			Right:  points[meshLeftEyeRight],
			Top:    points[meshLeftEyeTop],
			Bottom: points[meshLeftEyeBottom],
		},
		RightEye: Eye{
			Iris:   points[meshRightIris],
			Left:   points[meshRightEyeLeft],
			Right:  points[meshRightEyeRight],
			Top:    points[meshRightEyeTop],
			Bottom: points[meshRightEyeBottom],
		},
	}, nil
}
