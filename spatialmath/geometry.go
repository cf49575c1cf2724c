package spatialmath

import (
	"github.com/golang/geo/r3"
	spatial "gonum.org/v1/gonum/spatial/r3"
)

// floatEpsilon is used to discard degenerate separating axes.
const floatEpsilon = 1e-6

// Geometry is a convex solid with a pose that can be tested for collision against other
// geometries.
type Geometry interface {
	Pose() Pose
	Label() string
	// Transform premultiplies the geometry's pose, moving it into the frame toPremultiply is expressed in.
	Transform(toPremultiply Pose) Geometry
	// AABB returns the world axis aligned bounding box of the geometry.
	AABB() spatial.Box
	// CollidesWith returns true if the two geometries are closer than collisionBufferMM.
	CollidesWith(g Geometry, collisionBufferMM float64) (bool, error)
	String() string
}

// AABBOverlap reports whether two axis aligned boxes, each grown by buffer/2, intersect.
func AABBOverlap(a, b spatial.Box, buffer float64) bool {
	return a.Min.X <= b.Max.X+buffer && b.Min.X <= a.Max.X+buffer &&
		a.Min.Y <= b.Max.Y+buffer && b.Min.Y <= a.Max.Y+buffer &&
		a.Min.Z <= b.Max.Z+buffer && b.Min.Z <= a.Max.Z+buffer
}

func toVec(v r3.Vector) spatial.Vec {
	return spatial.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
