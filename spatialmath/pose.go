package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) mm coordinates,
// and the Orientation() method returns an Orientation object.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// matrixPose stores a rigid transform as a homogeneous 4x4 matrix.
type matrixPose struct {
	mat mgl64.Mat4
}

// NewZeroPose returns a pose at (0,0,0) with the same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &matrixPose{mgl64.Ident4()}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &matrixPose{mgl64.Translate3D(point.X, point.Y, point.Z)}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &matrixPose{o.RotationMatrix().mat4(p)}
}

// NewPoseFromMatrix validates a homogeneous transform and wraps it as a Pose. The bottom row must
// be [0 0 0 1] and the rotation block must be a proper rotation within 1e-6.
func NewPoseFromMatrix(m mgl64.Mat4) (Pose, error) {
	if m.At(3, 0) != 0 || m.At(3, 1) != 0 || m.At(3, 2) != 0 || m.At(3, 3) != 1 {
		return nil, ErrNotHomogeneous
	}
	p := &matrixPose{m}
	if rm := p.rotationMatrix(); !rm.IsRotation(1e-6) {
		return nil, errors.Wrapf(ErrNotRotation, "rotation block %v", rm)
	}
	return p, nil
}

// NewPoseFromRowMajor builds a pose from 16 row major values, the layout a 4x4 matrix is
// written down in a file.
func NewPoseFromRowMajor(values []float64) (Pose, error) {
	if len(values) != 16 {
		return nil, errors.Errorf("homogeneous transform needs 16 values, got %d", len(values))
	}
	var m mgl64.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m[col*4+row] = values[row*4+col]
		}
	}
	return NewPoseFromMatrix(m)
}

// PoseToMatrix returns the homogeneous 4x4 transform of a pose.
func PoseToMatrix(p Pose) mgl64.Mat4 {
	if mp, ok := p.(*matrixPose); ok {
		return mp.mat
	}
	return p.Orientation().RotationMatrix().mat4(p.Point())
}

// PoseToRowMajor returns the 16 row major values of the pose's homogeneous transform.
func PoseToRowMajor(p Pose) []float64 {
	m := PoseToMatrix(p)
	out := make([]float64, 16)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row*4+col] = m.At(row, col)
		}
	}
	return out
}

func (p *matrixPose) Point() r3.Vector {
	return r3.Vector{X: p.mat[12], Y: p.mat[13], Z: p.mat[14]}
}

func (p *matrixPose) Orientation() Orientation {
	return p.rotationMatrix()
}

func (p *matrixPose) rotationMatrix() *RotationMatrix {
	m := p.mat
	return &RotationMatrix{[9]float64{
		m[0], m[4], m[8],
		m[1], m[5], m[9],
		m[2], m[6], m[10],
	}}
}

func (p *matrixPose) String() string {
	pt := p.Point()
	aa := p.Orientation().AxisAngles()
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f TH:%.5f RX:%.5f RY:%.5f RZ:%.5f}", pt.X, pt.Y, pt.Z, aa.Theta, aa.RX, aa.RY, aa.RZ)
}

// Compose takes two poses, converts them to homogeneous transforms, multiplies them together and
// returns the result. The second pose is expressed in the frame of the first.
func Compose(a, b Pose) Pose {
	return &matrixPose{PoseToMatrix(a).Mul4(PoseToMatrix(b))}
}

// PoseInverse returns a Pose that is the inverse of the rigid transform p.
func PoseInverse(p Pose) Pose {
	rt := p.Orientation().RotationMatrix().Transpose()
	return &matrixPose{rt.mat4(rt.Mul(p.Point()).Mul(-1))}
}

// PoseBetween returns the difference between two poses, i.e. the pose that when composed onto a
// gives b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseDelta returns the translational distance and the rotation angle between two poses.
func PoseDelta(a, b Pose) (float64, float64) {
	between := PoseBetween(a, b)
	return between.Point().Norm(), math.Abs(between.Orientation().AxisAngles().Theta)
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same,
// comparing every entry of their homogeneous transforms against epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return PoseToMatrix(a).ApproxEqualThreshold(PoseToMatrix(b), epsilon)
}
