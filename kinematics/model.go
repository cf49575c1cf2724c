// Package kinematics defines the kinematic model the collision map sweep drives, and a serial
// arm of revolute joints that implements it.
package kinematics

import (
	"context"

	"go.viam.com/collisionmap/referenceframe"
	"go.viam.com/collisionmap/spatialmath"
)

// Model is a kinematic chain that can be driven to an end effector pose. Models are stateful:
// SolveIK moves the current inputs, ForwardKinematics recomputes the placements from them.
// A Model is not safe for concurrent use; each goroutine should own a Clone.
type Model interface {
	Name() string
	// DoF returns the limits of each input, in order.
	DoF() []referenceframe.Limit
	// SolveIK searches for inputs that place the end effector at target. It returns false with a
	// nil error when no solution was found, and leaves the inputs unchanged in that case.
	SolveIK(ctx context.Context, target spatialmath.Pose) (bool, error)
	// ForwardKinematics recomputes the placement of every part from the current inputs.
	ForwardKinematics() error
	// Placements returns the world placement of every part as of the last ForwardKinematics.
	Placements() []referenceframe.Placement
	// Clone returns an independent model with the same structure and current inputs.
	Clone() Model
}
