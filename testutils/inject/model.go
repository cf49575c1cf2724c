// Package inject provides implementations of the collision map collaborators whose methods can be
// replaced per test.
package inject

import (
	"context"

	"go.viam.com/collisionmap/kinematics"
	"go.viam.com/collisionmap/referenceframe"
	"go.viam.com/collisionmap/spatialmath"
)

// Model is an injected kinematic model.
type Model struct {
	kinematics.Model
	NameFunc              func() string
	DoFFunc               func() []referenceframe.Limit
	SolveIKFunc           func(ctx context.Context, target spatialmath.Pose) (bool, error)
	ForwardKinematicsFunc func() error
	PlacementsFunc        func() []referenceframe.Placement
	CloneFunc             func() kinematics.Model
}

// Name calls the injected Name or the real version.
func (m *Model) Name() string {
	if m.NameFunc == nil {
		return m.Model.Name()
	}
	return m.NameFunc()
}

// DoF calls the injected DoF or the real version.
func (m *Model) DoF() []referenceframe.Limit {
	if m.DoFFunc == nil {
		return m.Model.DoF()
	}
	return m.DoFFunc()
}

// SolveIK calls the injected SolveIK or the real version.
func (m *Model) SolveIK(ctx context.Context, target spatialmath.Pose) (bool, error) {
	if m.SolveIKFunc == nil {
		return m.Model.SolveIK(ctx, target)
	}
	return m.SolveIKFunc(ctx, target)
}

// ForwardKinematics calls the injected ForwardKinematics or the real version.
func (m *Model) ForwardKinematics() error {
	if m.ForwardKinematicsFunc == nil {
		return m.Model.ForwardKinematics()
	}
	return m.ForwardKinematicsFunc()
}

// Placements calls the injected Placements or the real version.
func (m *Model) Placements() []referenceframe.Placement {
	if m.PlacementsFunc == nil {
		return m.Model.Placements()
	}
	return m.PlacementsFunc()
}

// Clone calls the injected Clone or the real version.
func (m *Model) Clone() kinematics.Model {
	if m.CloneFunc == nil {
		return m.Model.Clone()
	}
	return m.CloneFunc()
}
