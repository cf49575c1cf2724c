package referenceframe

import (
	"go.viam.com/collisionmap/spatialmath"
)

// World is the name of the static root frame. Bodies attached to it never move.
const World = "world"

// Placement is the pose of a named part of a kinematic model in the world frame.
type Placement struct {
	Name string
	Pose spatialmath.Pose
}

// PlacementMap indexes placements by part name. Later duplicates win.
func PlacementMap(placements []Placement) map[string]spatialmath.Pose {
	out := make(map[string]spatialmath.Pose, len(placements))
	for _, p := range placements {
		out[p.Name] = p.Pose
	}
	return out
}
