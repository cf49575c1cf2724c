// Package config reads collision map scenarios: the arm, the bodies of the collision world, the
// pairs that are allowed to touch, the sweep settings and the machining path.
package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	viamutils "go.viam.com/utils"

	"go.viam.com/collisionmap/collision"
	"go.viam.com/collisionmap/collisionmap"
	"go.viam.com/collisionmap/kinematics"
	"go.viam.com/collisionmap/logging"
	"go.viam.com/collisionmap/referenceframe"
	"go.viam.com/collisionmap/spatialmath"
	"go.viam.com/collisionmap/utils"
)

// Scenario is everything needed to compute one collision map.
type Scenario struct {
	Sweep             collisionmap.Config  `json:"sweep" yaml:"sweep"`
	Arm               kinematics.ArmConfig `json:"arm" yaml:"arm"`
	CollisionBufferMM float64              `json:"collision_buffer_mm" yaml:"collision_buffer_mm"`
	Bodies            []Body               `json:"bodies" yaml:"bodies"`
	AllowedCollisions []AllowedCollision   `json:"allowed_collisions" yaml:"allowed_collisions"`
	Path              Path                 `json:"path" yaml:"path"`

	ConfigFilePath string `json:"-" yaml:"-"`
}

// Body is a collidable body attached to an arm part or, with an empty part, to the world.
type Body struct {
	ID       string                     `json:"id" yaml:"id"`
	Part     string                     `json:"part" yaml:"part"`
	Geometry spatialmath.GeometryConfig `json:"geometry" yaml:"geometry"`
}

// Validate ensures all parts of the body config are valid.
func (b *Body) Validate(path string) error {
	if b.ID == "" {
		return viamutils.NewConfigValidationFieldRequiredError(path, "id")
	}
	return nil
}

// AllowedCollision names two bodies that are expected to touch.
type AllowedCollision struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// Sample is one path sample. It is given either as a point with tangent and normal, or as a full
// pose of 16 row major values. Angles are in degrees.
type Sample struct {
	Point          r3.Vector `json:"point" yaml:"point"`
	Tangent        r3.Vector `json:"tangent" yaml:"tangent"`
	Normal         r3.Vector `json:"normal" yaml:"normal"`
	Pose           []float64 `json:"pose" yaml:"pose"`
	ToolAxisDeg    float64   `json:"tool_axis_deg" yaml:"tool_axis_deg"`
	SideTiltDeg    float64   `json:"side_tilt_deg" yaml:"side_tilt_deg"`
	ForwardTiltDeg float64   `json:"forward_tilt_deg" yaml:"forward_tilt_deg"`
}

// Path is the machining path of a scenario.
type Path struct {
	Samples []Sample `json:"samples" yaml:"samples"`
}

// UsesPoses reports whether the samples are given as full poses.
func (p *Path) UsesPoses() bool {
	return len(p.Samples) > 0 && len(p.Samples[0].Pose) > 0
}

// Validate ensures every sample uses the same form and is complete.
func (p *Path) Validate(path string) error {
	if len(p.Samples) == 0 {
		return viamutils.NewConfigValidationFieldRequiredError(path, "samples")
	}
	poses := p.UsesPoses()
	var err error
	for idx, s := range p.Samples {
		samplePath := fmt.Sprintf("%s.samples.%d", path, idx)
		switch {
		case poses && len(s.Pose) != 16:
			err = multierr.Append(err, viamutils.NewConfigValidationError(samplePath,
				errors.Errorf("pose needs 16 values, got %d", len(s.Pose))))
		case !poses && len(s.Pose) != 0:
			err = multierr.Append(err, viamutils.NewConfigValidationError(samplePath,
				errors.New("samples must all be poses or all be frames")))
		case !poses && s.Tangent.Norm() == 0:
			err = multierr.Append(err, viamutils.NewConfigValidationFieldRequiredError(samplePath, "tangent"))
		case !poses && s.Normal.Norm() == 0:
			err = multierr.Append(err, viamutils.NewConfigValidationFieldRequiredError(samplePath, "normal"))
		}
	}
	return err
}

func (p *Path) angles() (toolAxis, sideTilt, forwardTilt []float64) {
	toolAxis = lo.Map(p.Samples, func(s Sample, _ int) float64 { return utils.DegToRad(s.ToolAxisDeg) })
	sideTilt = lo.Map(p.Samples, func(s Sample, _ int) float64 { return utils.DegToRad(s.SideTiltDeg) })
	forwardTilt = lo.Map(p.Samples, func(s Sample, _ int) float64 { return utils.DegToRad(s.ForwardTiltDeg) })
	return toolAxis, sideTilt, forwardTilt
}

// FramePath converts frame samples to a sweep path.
func (p *Path) FramePath() collisionmap.FramePath {
	toolAxis, sideTilt, forwardTilt := p.angles()
	return collisionmap.FramePath{
		Points: lo.Map(p.Samples, func(s Sample, _ int) r3.Vector { return s.Point }),
		Frames: lo.Map(p.Samples, func(s Sample, _ int) spatialmath.LocalFrame {
			return spatialmath.LocalFrame{Tangent: s.Tangent, Normal: s.Normal}
		}),
		ToolAxisAngles:    toolAxis,
		SideTiltAngles:    sideTilt,
		ForwardTiltAngles: forwardTilt,
	}
}

// PosePath converts pose samples to a sweep path.
func (p *Path) PosePath() (collisionmap.PosePath, error) {
	toolAxis, sideTilt, forwardTilt := p.angles()
	poses := make([]spatialmath.Pose, 0, len(p.Samples))
	for idx, s := range p.Samples {
		pose, err := spatialmath.NewPoseFromRowMajor(s.Pose)
		if err != nil {
			return collisionmap.PosePath{}, errors.Wrapf(err, "pose of sample %d", idx)
		}
		poses = append(poses, pose)
	}
	return collisionmap.PosePath{
		Poses:             poses,
		ToolAxisAngles:    toolAxis,
		SideTiltAngles:    sideTilt,
		ForwardTiltAngles: forwardTilt,
	}, nil
}

// Compute runs the sweep entry point matching the form of the samples.
func (p *Path) Compute(ctx context.Context, sweeper *collisionmap.Sweeper) (*collisionmap.Grid, error) {
	if !p.UsesPoses() {
		return sweeper.ComputeFromFrames(ctx, p.FramePath())
	}
	posePath, err := p.PosePath()
	if err != nil {
		return nil, err
	}
	return sweeper.ComputeFromPoses(ctx, posePath)
}

// Ensure validates the whole scenario and returns every problem found.
func (s *Scenario) Ensure() error {
	var err error
	if sweepErr := s.Sweep.Validate(); sweepErr != nil {
		err = multierr.Append(err, viamutils.NewConfigValidationError("sweep", sweepErr))
	}
	err = multierr.Append(err, s.Arm.Validate("arm"))
	if s.CollisionBufferMM < 0 {
		err = multierr.Append(err, viamutils.NewConfigValidationError("collision_buffer_mm",
			errors.Errorf("must not be negative, got %f", s.CollisionBufferMM)))
	}
	for idx := range s.Bodies {
		err = multierr.Append(err, s.Bodies[idx].Validate(fmt.Sprintf("bodies.%d", idx)))
	}
	for idx, allowed := range s.AllowedCollisions {
		if allowed.A == "" || allowed.B == "" {
			err = multierr.Append(err, viamutils.NewConfigValidationError(fmt.Sprintf("allowed_collisions.%d", idx),
				errors.New("both bodies must be named")))
		}
	}
	return multierr.Append(err, s.Path.Validate("path"))
}

// Build constructs the arm, the collision world and the filter of a scenario and hands them to a
// new sweeper.
func (s *Scenario) Build(logger logging.Logger) (*collisionmap.Sweeper, error) {
	arm, err := kinematics.NewSerialArmFromConfig(&s.Arm, logger.Sublogger("kinematics"))
	if err != nil {
		return nil, err
	}
	parts := lo.SliceToMap(arm.Placements(), func(p referenceframe.Placement) (string, bool) {
		return p.Name, true
	})

	bodies := make([]collision.Body, 0, len(s.Bodies))
	for idx, bc := range s.Bodies {
		if bc.Part != "" && bc.Part != referenceframe.World && !parts[bc.Part] {
			return nil, errors.Errorf("body %q is attached to unknown part %q", bc.ID, bc.Part)
		}
		geomCfg := bc.Geometry
		if geomCfg.File != "" && !filepath.IsAbs(geomCfg.File) && s.ConfigFilePath != "" {
			geomCfg.File = filepath.Join(filepath.Dir(s.ConfigFilePath), geomCfg.File)
		}
		if geomCfg.Label == "" {
			geomCfg.Label = bc.ID
		}
		geometry, err := geomCfg.ParseConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "geometry of bodies.%d", idx)
		}
		bodies = append(bodies, collision.Body{ID: collision.BodyID(bc.ID), Part: bc.Part, Geometry: geometry})
	}
	world, err := collision.NewWorld(bodies, s.CollisionBufferMM, logger.Sublogger("collision"))
	if err != nil {
		return nil, err
	}

	filter, err := collision.NewFilterFromNames(lo.Map(s.AllowedCollisions, func(ac AllowedCollision, _ int) [2]string {
		return [2]string{ac.A, ac.B}
	}))
	if err != nil {
		return nil, err
	}
	return collisionmap.NewSweeper(arm, world, filter, s.Sweep, logger)
}
