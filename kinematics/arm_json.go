package kinematics

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	viamutils "go.viam.com/utils"

	"go.viam.com/collisionmap/logging"
	"go.viam.com/collisionmap/referenceframe"
	"go.viam.com/collisionmap/spatialmath"
	"go.viam.com/collisionmap/utils"
)

// JointConfig is the serialized form of a Joint. Limits are in degrees.
type JointConfig struct {
	Name     string    `json:"name" yaml:"name"`
	Axis     r3.Vector `json:"axis" yaml:"axis"`
	OffsetMM r3.Vector `json:"offset_mm" yaml:"offset_mm"`
	MinDeg   float64   `json:"min_deg" yaml:"min_deg"`
	MaxDeg   float64   `json:"max_deg" yaml:"max_deg"`
}

// ArmConfig describes a SerialArm.
type ArmConfig struct {
	Name   string                 `json:"name" yaml:"name"`
	Base   spatialmath.PoseConfig `json:"base" yaml:"base"`
	Tool   spatialmath.PoseConfig `json:"tool" yaml:"tool"`
	Joints []JointConfig          `json:"joints" yaml:"joints"`
	// HomeDeg, if set, is the starting joint position, used as the first IK seed.
	HomeDeg []float64 `json:"home_deg" yaml:"home_deg"`
	IK      IKConfig  `json:"ik" yaml:"ik"`
}

// Validate checks the arm config, reporting every problem found.
func (cfg *ArmConfig) Validate(path string) error {
	var err error
	if cfg.Name == "" {
		err = multierr.Append(err, viamutils.NewConfigValidationFieldRequiredError(path, "name"))
	}
	if len(cfg.Joints) == 0 {
		err = multierr.Append(err, viamutils.NewConfigValidationFieldRequiredError(path, "joints"))
	}
	for i, j := range cfg.Joints {
		jointPath := fmt.Sprintf("%s.joints.%d", path, i)
		if j.Name == "" {
			err = multierr.Append(err, viamutils.NewConfigValidationFieldRequiredError(jointPath, "name"))
		}
		if j.Axis.Norm() == 0 {
			err = multierr.Append(err, viamutils.NewConfigValidationFieldRequiredError(jointPath, "axis"))
		}
		if j.MinDeg > j.MaxDeg {
			err = multierr.Append(err, viamutils.NewConfigValidationError(jointPath,
				errors.Errorf("min_deg %.2f is greater than max_deg %.2f", j.MinDeg, j.MaxDeg)))
		}
	}
	if len(cfg.HomeDeg) != 0 && len(cfg.HomeDeg) != len(cfg.Joints) {
		err = multierr.Append(err, viamutils.NewConfigValidationError(path,
			referenceframe.NewIncorrectDoFError(len(cfg.HomeDeg), len(cfg.Joints))))
	}
	return err
}

// NewSerialArmFromConfig builds the arm a config describes and moves it to its home position.
func NewSerialArmFromConfig(cfg *ArmConfig, logger logging.Logger) (*SerialArm, error) {
	joints := make([]Joint, 0, len(cfg.Joints))
	for _, jc := range cfg.Joints {
		minDeg, maxDeg := jc.MinDeg, jc.MaxDeg
		if minDeg == 0 && maxDeg == 0 {
			minDeg, maxDeg = -180, 180
		}
		joints = append(joints, Joint{
			Name:   jc.Name,
			Axis:   jc.Axis,
			Offset: jc.OffsetMM,
			Limit:  referenceframe.Limit{Min: utils.DegToRad(minDeg), Max: utils.DegToRad(maxDeg)},
		})
	}
	arm, err := NewSerialArm(cfg.Name, cfg.Base.Pose(), joints, cfg.Tool.Pose(), cfg.IK, logger)
	if err != nil {
		return nil, err
	}
	if len(cfg.HomeDeg) == 0 {
		return arm, nil
	}
	home := make([]referenceframe.Input, 0, len(cfg.HomeDeg))
	for _, deg := range cfg.HomeDeg {
		home = append(home, referenceframe.Input{Value: utils.DegToRad(deg)})
	}
	if err := arm.SetInputs(home); err != nil {
		return nil, errors.Wrapf(err, "home position of arm %q", cfg.Name)
	}
	if err := arm.ForwardKinematics(); err != nil {
		return nil, err
	}
	return arm, nil
}
