package collisionmap

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/collisionmap/spatialmath"
)

// InstallMethod says which side of the process the manipulator holds.
type InstallMethod int

const (
	// ExternalWorkpieceHandTool: the tool is on the flange and the workpiece is fixed.
	ExternalWorkpieceHandTool InstallMethod = iota
	// HandWorkpieceExternalTool: the workpiece is on the flange and the tool is fixed.
	HandWorkpieceExternalTool
)

var installMethodNames = map[InstallMethod]string{
	ExternalWorkpieceHandTool: "external_workpiece_hand_tool",
	HandWorkpieceExternalTool: "hand_workpiece_external_tool",
}

func (m InstallMethod) String() string {
	if name, ok := installMethodNames[m]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (m InstallMethod) MarshalText() ([]byte, error) {
	if _, ok := installMethodNames[m]; !ok {
		return nil, errors.Errorf("unknown install method %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *InstallMethod) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for method, known := range installMethodNames {
		if name == known {
			*m = method
			return nil
		}
	}
	return errors.Errorf("unknown install method %q", string(text))
}

// SweepOption selects the range the swept rotation covers and the angle that absorbs it.
type SweepOption int

const (
	// SweepToolAxis samples a full revolution of the tool axis.
	SweepToolAxis SweepOption = iota
	// SweepSideTilt samples a half revolution of side tilt.
	SweepSideTilt
)

var sweepOptionNames = map[SweepOption]string{
	SweepToolAxis: "tool_axis",
	SweepSideTilt: "side_tilt",
}

func (o SweepOption) String() string {
	if name, ok := sweepOptionNames[o]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (o SweepOption) MarshalText() ([]byte, error) {
	if _, ok := sweepOptionNames[o]; !ok {
		return nil, errors.Errorf("unknown sweep option %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *SweepOption) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for opt, known := range sweepOptionNames {
		if name == known {
			*o = opt
			return nil
		}
	}
	return errors.Errorf("unknown sweep option %q", string(text))
}

// StepAngle returns the rotation between consecutive rows of a grid with the given resolution:
// 2π/resolution for SweepToolAxis and π/resolution otherwise.
func (o SweepOption) StepAngle(resolution int) float64 {
	if o == SweepToolAxis {
		return 2 * math.Pi / float64(resolution)
	}
	return math.Pi / float64(resolution)
}

// Channel is the angle a swept rotation is written into.
type Channel int

// The channels a swept rotation can be routed to. ChannelNone leaves the path angles unchanged.
const (
	ChannelNone Channel = iota
	ChannelToolAxis
	ChannelSideTilt
)

func (c Channel) String() string {
	switch c {
	case ChannelToolAxis:
		return "tool_axis"
	case ChannelSideTilt:
		return "side_tilt"
	default:
		return "none"
	}
}

// SweepChannel returns the channel that absorbs the swept rotation. With the workpiece in hand
// no channel does: every row of the grid repeats the path's own angles.
func SweepChannel(method InstallMethod, option SweepOption) Channel {
	if method != ExternalWorkpieceHandTool {
		return ChannelNone
	}
	if option == SweepToolAxis {
		return ChannelToolAxis
	}
	return ChannelSideTilt
}

// CellAngles are the three angles that orient the tool relative to a path sample.
type CellAngles struct {
	ToolAxis    float64 `json:"tool_axis"`
	SideTilt    float64 `json:"side_tilt"`
	ForwardTilt float64 `json:"forward_tilt"`
}

// AdjustAngles normalizes a path sample's angles, the tool axis into (-π, π] and the tilts into
// (-π/2, π/2], then writes the swept rotation into the channel that absorbs it. The tool axis
// channel takes swept-π; the side tilt channel takes swept-π/2 wrapped into (-π/2, π/2].
func AdjustAngles(channel Channel, swept float64, in CellAngles) CellAngles {
	out := CellAngles{
		ToolAxis:    spatialmath.NormalizeAngle(in.ToolAxis, math.Pi),
		SideTilt:    spatialmath.NormalizeAngle(in.SideTilt, math.Pi/2),
		ForwardTilt: spatialmath.NormalizeAngle(in.ForwardTilt, math.Pi/2),
	}
	switch channel {
	case ChannelToolAxis:
		out.ToolAxis = swept - math.Pi
	case ChannelSideTilt:
		out.SideTilt = spatialmath.NormalizeAngle(swept-math.Pi/2, math.Pi/2)
	case ChannelNone:
	}
	return out
}

// TargetPose returns the end effector pose for a path pose and adjusted angles.
func TargetPose(pathPose spatialmath.Pose, angles CellAngles) spatialmath.Pose {
	tilt := spatialmath.TiltRotation(angles.SideTilt, angles.ForwardTilt)
	return spatialmath.ToolPose(pathPose, tilt, angles.ToolAxis)
}
