package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	spatial "gonum.org/v1/gonum/spatial/r3"
)

type sphere struct {
	center Pose
	radius float64
	label  string
}

// NewSphere instantiates a new sphere Geometry.
func NewSphere(pose Pose, radius float64, label string) (Geometry, error) {
	if radius < 0 {
		return nil, newBadGeometryDimensionsError(&sphere{})
	}
	return &sphere{pose, radius, label}, nil
}

func (s *sphere) String() string {
	pt := s.center.Point()
	return fmt.Sprintf("Type: Sphere | Position: X:%.1f, Y:%.1f, Z:%.1f | Radius: %.0f", pt.X, pt.Y, pt.Z, s.radius)
}

func (s *sphere) Label() string {
	return s.label
}

func (s *sphere) Pose() Pose {
	return s.center
}

func (s *sphere) Transform(toPremultiply Pose) Geometry {
	return &sphere{Compose(toPremultiply, s.center), s.radius, s.label}
}

func (s *sphere) AABB() spatial.Box {
	pt := s.center.Point()
	r := r3.Vector{X: s.radius, Y: s.radius, Z: s.radius}
	return spatial.Box{Min: toVec(pt.Sub(r)), Max: toVec(pt.Add(r))}
}

func (s *sphere) CollidesWith(g Geometry, collisionBufferMM float64) (bool, error) {
	switch other := g.(type) {
	case *box:
		return sphereVsBoxCollision(s, other, collisionBufferMM), nil
	case *sphere:
		return sphereVsSphereDistance(s, other) <= collisionBufferMM, nil
	default:
		return true, newCollisionTypeUnsupportedError(s, g)
	}
}

func sphereVsSphereDistance(a, b *sphere) float64 {
	return a.center.Point().Distance(b.center.Point()) - a.radius - b.radius
}

func sphereVsBoxCollision(s *sphere, b *box, collisionBufferMM float64) bool {
	pt := s.center.Point()
	if pt.Distance(b.centerPt)-s.radius-b.boundingSphereR > collisionBufferMM {
		return false
	}
	return b.closestPoint(pt).Distance(pt)-s.radius <= collisionBufferMM
}
