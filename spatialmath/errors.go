package spatialmath

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotHomogeneous is returned for a 4x4 matrix whose bottom row is not [0 0 0 1].
	ErrNotHomogeneous = errors.New("matrix is not a homogeneous transform")
	// ErrNotRotation is returned when a rotation block is not orthonormal with determinant +1.
	ErrNotRotation = errors.New("matrix is not a proper rotation")
	// ErrMalformedFrame is returned when a local frame's vectors are not unit length or not orthogonal.
	ErrMalformedFrame = errors.New("local frame is malformed")
)

func newBadGeometryDimensionsError(g Geometry) error {
	return fmt.Errorf("invalid dimension(s) for geometry type %T", g)
}

func newCollisionTypeUnsupportedError(g1, g2 Geometry) error {
	return fmt.Errorf("collisions between %T and %T are not supported", g1, g2)
}
