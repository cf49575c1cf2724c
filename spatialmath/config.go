package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collisionmap/utils"
)

// PoseConfig is the serialized form of a pose: a translation in mm and a roll/pitch/yaw in degrees.
type PoseConfig struct {
	Translation r3.Vector `json:"translation" yaml:"translation"`
	RPYDegrees  r3.Vector `json:"rpy_deg" yaml:"rpy_deg"`
}

// Pose converts the config to a Pose.
func (pc PoseConfig) Pose() Pose {
	return NewPose(pc.Translation, &EulerAngles{
		Roll:  utils.DegToRad(pc.RPYDegrees.X),
		Pitch: utils.DegToRad(pc.RPYDegrees.Y),
		Yaw:   utils.DegToRad(pc.RPYDegrees.Z),
	})
}

// GeometryType is the kind of solid a GeometryConfig describes.
type GeometryType string

// The geometry types a GeometryConfig can describe.
const (
	BoxType    = GeometryType("box")
	SphereType = GeometryType("sphere")
	// STLType is a mesh file reduced to its bounding box.
	STLType = GeometryType("stl")
)

// GeometryConfig is the serialized form of a Geometry, posed relative to the frame it is attached to.
type GeometryConfig struct {
	Type     GeometryType `json:"type" yaml:"type"`
	Pose     PoseConfig   `json:"pose" yaml:"pose"`
	DimsMM   r3.Vector    `json:"dims_mm" yaml:"dims_mm"`
	RadiusMM float64      `json:"radius_mm" yaml:"radius_mm"`
	File     string       `json:"file" yaml:"file"`
	Label    string       `json:"label" yaml:"label"`
}

// ParseConfig builds the Geometry a config describes.
func (gc *GeometryConfig) ParseConfig() (Geometry, error) {
	switch gc.Type {
	case BoxType, "":
		return NewBox(gc.Pose.Pose(), gc.DimsMM, gc.Label)
	case SphereType:
		return NewSphere(gc.Pose.Pose(), gc.RadiusMM, gc.Label)
	case STLType:
		if gc.File == "" {
			return nil, errors.New("stl geometry needs a file")
		}
		return NewBoxFromSTL(gc.File, gc.Pose.Pose(), gc.Label)
	default:
		return nil, errors.Errorf("unknown geometry type %q", gc.Type)
	}
}
