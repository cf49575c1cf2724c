package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// OrthogonalSnapTolerance is how close, in radians, a tilt angle must be to ±π/2 to be treated
// as exactly orthogonal.
const OrthogonalSnapTolerance = 0.01

// snapOrthogonal returns +1 or -1 when angle is within OrthogonalSnapTolerance of +π/2 or -π/2,
// and 0 otherwise.
func snapOrthogonal(angle float64) float64 {
	if math.Abs(math.Abs(angle)-math.Pi/2) > OrthogonalSnapTolerance {
		return 0
	}
	if angle > 0 {
		return 1
	}
	return -1
}

// TiltRotation builds the rotation of the tool frame relative to the path frame from a side tilt
// (about the path frame's x axis) and a forward tilt (about its y axis). The tool z axis points
// along (tan forward, tan side, 1). Angles within OrthogonalSnapTolerance of ±π/2 are snapped and
// handled in closed form because the tangent parametrization is singular there. Each snapped
// case is the limit of the general one approached from outside the band, except at the corner
// where both angles snap: there (tan forward, tan side, 1) has no limit and the side orthogonal
// limit is used. The columns of the result are always a right handed orthonormal basis.
func TiltRotation(sideTilt, forwardTilt float64) *RotationMatrix {
	side := snapOrthogonal(sideTilt)
	forward := snapOrthogonal(forwardTilt)

	var x, y, z r3.Vector
	switch {
	case side != 0 && forward != 0:
		// Limit of the side orthogonal case at forward = ±π/2.
		x = r3.Vector{X: 0, Y: 0, Z: -forward}
		y = r3.Vector{X: -side * forward, Y: 0, Z: 0}
		z = r3.Vector{X: 0, Y: side, Z: 0}
	case side != 0:
		sf, cf := math.Sincos(forwardTilt)
		x = r3.Vector{X: cf, Y: 0, Z: -sf}
		y = r3.Vector{X: -side * sf, Y: 0, Z: -side * cf}
		z = r3.Vector{X: 0, Y: side, Z: 0}
	case forward != 0:
		// Limit of the general case at forward = ±π/2, which does not depend on the side tilt.
		x = r3.Vector{X: 0, Y: 0, Z: -forward}
		y = r3.Vector{X: 0, Y: 1, Z: 0}
		z = r3.Vector{X: forward, Y: 0, Z: 0}
	default:
		tf, ts := math.Tan(forwardTilt), math.Tan(sideTilt)
		z = r3.Vector{X: tf, Y: ts, Z: 1}
		x = r3.Vector{X: 1, Y: 0, Z: -tf}
		y = z.Cross(x)
		x, y, z = x.Normalize(), y.Normalize(), z.Normalize()
	}
	return NewRotationMatrixFromColumns(x, y, z)
}
