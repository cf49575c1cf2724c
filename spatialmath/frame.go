package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// frameTolerance bounds the unit length and orthogonality error accepted for a LocalFrame.
const frameTolerance = 1e-6

// toolFlip turns the surface frame, whose z axis points out of the material, into the tool frame,
// whose z axis points into it. It is a half turn about x so the result stays a proper rotation.
var toolFlip = RotationX(math.Pi)

// LocalFrame is the moving frame of a machining path at one sample: the direction of travel and
// the surface normal. The third axis is derived.
type LocalFrame struct {
	Tangent r3.Vector `json:"tangent" yaml:"tangent"`
	Normal  r3.Vector `json:"normal" yaml:"normal"`
}

// Binormal returns Normal × Tangent, which completes (Tangent, Binormal, Normal) to a right
// handed basis.
func (f LocalFrame) Binormal() r3.Vector {
	return f.Normal.Cross(f.Tangent)
}

// Validate returns an error if the frame vectors are not unit length or not orthogonal.
func (f LocalFrame) Validate() error {
	if math.Abs(f.Tangent.Norm()-1) > frameTolerance {
		return errors.Wrapf(ErrMalformedFrame, "tangent %v is not unit length", f.Tangent)
	}
	if math.Abs(f.Normal.Norm()-1) > frameTolerance {
		return errors.Wrapf(ErrMalformedFrame, "normal %v is not unit length", f.Normal)
	}
	if dot := f.Tangent.Dot(f.Normal); math.Abs(dot) > frameTolerance {
		return errors.Wrapf(ErrMalformedFrame, "tangent and normal are not orthogonal (dot %.3g)", dot)
	}
	return nil
}

// PoseFromFrame returns the pose whose rotation columns are (tangent, normal × tangent, normal)
// and whose translation is point. The frame is assumed valid.
func PoseFromFrame(frame LocalFrame, point r3.Vector) Pose {
	return NewPose(point, NewRotationMatrixFromColumns(frame.Tangent, frame.Binormal(), frame.Normal))
}

// ToolPose returns the end effector target for a path pose: the tilt is applied in the path
// frame, the result is converted from surface to tool convention, and the tool is finally spun
// by toolAxisAngle about its own z axis.
func ToolPose(pathPose Pose, tilt *RotationMatrix, toolAxisAngle float64) Pose {
	local := tilt.MatMul(toolFlip).MatMul(RotationZ(toolAxisAngle))
	return Compose(pathPose, NewPose(r3.Vector{}, local))
}
