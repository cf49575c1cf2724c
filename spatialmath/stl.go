package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/hschendel/stl"
	"github.com/pkg/errors"
)

// NewBoxFromSTL reads an ASCII or binary STL file and returns the axis aligned bounding box of
// its vertices in the mesh frame, placed at pose.
func NewBoxFromSTL(path string, pose Pose, label string) (Geometry, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading stl file %q", path)
	}
	if len(solid.Triangles) == 0 {
		return nil, errors.Errorf("stl file %q has no triangles", path)
	}
	minPt := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	maxPt := minPt.Mul(-1)
	for _, tri := range solid.Triangles {
		for _, v := range tri.Vertices {
			pt := r3.Vector{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
			minPt = r3.Vector{X: math.Min(minPt.X, pt.X), Y: math.Min(minPt.Y, pt.Y), Z: math.Min(minPt.Z, pt.Z)}
			maxPt = r3.Vector{X: math.Max(maxPt.X, pt.X), Y: math.Max(maxPt.Y, pt.Y), Z: math.Max(maxPt.Z, pt.Z)}
		}
	}
	if label == "" {
		label = solid.Name
	}
	bounds, err := NewBoxFromBounds(minPt, maxPt, label)
	if err != nil {
		return nil, err
	}
	return bounds.Transform(pose), nil
}
