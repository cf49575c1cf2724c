package spatialmath

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
	spatial "gonum.org/v1/gonum/spatial/r3"
)

// box is a collision geometry that represents a 3D rectangular prism, it has a pose and half size that fully define it.
type box struct {
	center          Pose
	centerPt        r3.Vector
	halfSize        [3]float64
	boundingSphereR float64
	label           string
	rotMatrix       *RotationMatrix
	once            sync.Once
}

// NewBox instantiates a new box Geometry.
func NewBox(pose Pose, dims r3.Vector, label string) (Geometry, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for thin plates.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(&box{})
	}
	halfSize := dims.Mul(0.5)
	return &box{
		center:          pose,
		centerPt:        pose.Point(),
		halfSize:        [3]float64{halfSize.X, halfSize.Y, halfSize.Z},
		boundingSphereR: halfSize.Norm(),
		label:           label,
	}, nil
}

// NewBoxFromBounds returns the box spanning an axis aligned min/max corner pair, expressed in the
// frame the corners are given in.
func NewBoxFromBounds(minPt, maxPt r3.Vector, label string) (Geometry, error) {
	return NewBox(NewPoseFromPoint(minPt.Add(maxPt).Mul(0.5)), maxPt.Sub(minPt), label)
}

// String returns a human readable string that represents the box.
func (b *box) String() string {
	return fmt.Sprintf("Type: Box | Position: X:%.1f, Y:%.1f, Z:%.1f | Dims: X:%.0f, Y:%.0f, Z:%.0f",
		b.centerPt.X, b.centerPt.Y, b.centerPt.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Label returns the label of this box.
func (b *box) Label() string {
	return b.label
}

// Pose returns the pose of the box.
func (b *box) Pose() Pose {
	return b.center
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *box) Transform(toPremultiply Pose) Geometry {
	p := Compose(toPremultiply, b.center)
	return &box{
		center:          p,
		centerPt:        p.Point(),
		halfSize:        b.halfSize,
		boundingSphereR: b.boundingSphereR,
		label:           b.label,
	}
}

// AABB returns the world aligned bounds of the rotated box.
func (b *box) AABB() spatial.Box {
	rm := b.rotationMatrix()
	var extent r3.Vector
	for i := 0; i < 3; i++ {
		axis := rm.Col(i).Mul(b.halfSize[i])
		extent = extent.Add(r3.Vector{X: math.Abs(axis.X), Y: math.Abs(axis.Y), Z: math.Abs(axis.Z)})
	}
	return spatial.Box{Min: toVec(b.centerPt.Sub(extent)), Max: toVec(b.centerPt.Add(extent))}
}

// CollidesWith checks if the given box collides with the given geometry and returns true if it does.
func (b *box) CollidesWith(g Geometry, collisionBufferMM float64) (bool, error) {
	switch other := g.(type) {
	case *box:
		return boxVsBoxCollision(b, other, collisionBufferMM), nil
	case *sphere:
		return sphereVsBoxCollision(other, b, collisionBufferMM), nil
	default:
		return true, newCollisionTypeUnsupportedError(b, g)
	}
}

// closestPoint returns the closest point on the box to the specified point.
func (b *box) closestPoint(pt r3.Vector) r3.Vector {
	result := b.centerPt
	direction := pt.Sub(result)
	rm := b.rotationMatrix()
	for i := 0; i < 3; i++ {
		axis := rm.Col(i)
		distance := math.Max(-b.halfSize[i], math.Min(b.halfSize[i], direction.Dot(axis)))
		result = result.Add(axis.Mul(distance))
	}
	return result
}

// rotationMatrix returns the cached matrix if it exists, and generates it if not.
func (b *box) rotationMatrix() *RotationMatrix {
	b.once.Do(func() { b.rotMatrix = b.center.Orientation().RotationMatrix() })

	return b.rotMatrix
}

// boxVsBoxCollision runs the separating axis test over the 15 candidate axes of two boxes.
// The bounding sphere check lets distant boxes exit before any axis is tested.
func boxVsBoxCollision(a, b *box, collisionBufferMM float64) bool {
	centerDist := b.centerPt.Sub(a.centerPt)

	if centerDist.Norm()-(a.boundingSphereR+b.boundingSphereR) > collisionBufferMM {
		return false
	}

	rmA := a.rotationMatrix()
	rmB := b.rotationMatrix()

	for i := 0; i < 3; i++ {
		if separatingAxisTest(centerDist, rmA.Col(i), a.halfSize, b.halfSize, rmA, rmB) > collisionBufferMM {
			return false
		}
		if separatingAxisTest(centerDist, rmB.Col(i), a.halfSize, b.halfSize, rmA, rmB) > collisionBufferMM {
			return false
		}
		for j := 0; j < 3; j++ {
			crossProductPlane := rmA.Col(i).Cross(rmB.Col(j))

			// parallel edges are covered by the face axes
			if crossProductPlane.Norm() > floatEpsilon {
				dist := separatingAxisTest(centerDist, crossProductPlane.Normalize(), a.halfSize, b.halfSize, rmA, rmB)
				if dist > collisionBufferMM {
					return false
				}
			}
		}
	}
	return true
}

// separatingAxisTest returns the gap between the projections of two boxes onto plane. A positive
// result is a separation distance along that axis.
func separatingAxisTest(positionDelta, plane r3.Vector, halfSizeA, halfSizeB [3]float64, rmA, rmB *RotationMatrix) float64 {
	sum := math.Abs(positionDelta.Dot(plane))
	for i := 0; i < 3; i++ {
		sum -= math.Abs(rmA.Col(i).Mul(halfSizeA[i]).Dot(plane))
		sum -= math.Abs(rmB.Col(i).Mul(halfSizeB[i]).Dot(plane))
	}
	return sum
}
