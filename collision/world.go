package collision

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	spatial "gonum.org/v1/gonum/spatial/r3"

	"go.viam.com/collisionmap/logging"
	"go.viam.com/collisionmap/referenceframe"
	"go.viam.com/collisionmap/spatialmath"
)

// ErrUnplacedBody is returned by Query when a moving body has not received a placement yet.
var ErrUnplacedBody = errors.New("body has no placement")

// Body is a collidable geometry rigidly attached to a part. The geometry is expressed in the
// part's frame. Bodies on referenceframe.World never move.
type Body struct {
	ID       BodyID
	Part     string
	Geometry spatialmath.Geometry
}

// Static reports whether the body is attached to the world frame.
func (b Body) Static() bool {
	return b.Part == referenceframe.World
}

type placedBody struct {
	Body
	placed spatialmath.Geometry
	aabb   spatial.Box
}

// World is an Engine over convex bodies. Pairs are found with a sort and sweep over world aligned
// bounding boxes along x and confirmed with the exact geometry test. Pairs of two static bodies
// are never tested.
type World struct {
	bodies []placedBody
	parts  map[string][]int
	buffer float64
	order  []int
	logger logging.Logger
}

// NewWorld builds a world from bodies. Bodies with an empty part are attached to the world frame.
// bufferMM is the clearance under which two bodies count as touching.
func NewWorld(bodies []Body, bufferMM float64, logger logging.Logger) (*World, error) {
	if bufferMM < 0 {
		return nil, errors.Errorf("collision buffer must be non-negative, got %f", bufferMM)
	}
	w := &World{
		bodies: make([]placedBody, 0, len(bodies)),
		parts:  map[string][]int{},
		buffer: bufferMM,
		logger: logger,
	}
	seen := map[BodyID]bool{}
	for _, b := range bodies {
		if b.ID == "" {
			return nil, errors.New("body with empty id")
		}
		if seen[b.ID] {
			return nil, errors.Errorf("duplicate body id %q", b.ID)
		}
		if b.Geometry == nil {
			return nil, errors.Errorf("body %q has no geometry", b.ID)
		}
		seen[b.ID] = true
		if b.Part == "" {
			b.Part = referenceframe.World
		}
		pb := placedBody{Body: b}
		if b.Static() {
			pb.placed = b.Geometry
			pb.aabb = b.Geometry.AABB()
		}
		w.parts[b.Part] = append(w.parts[b.Part], len(w.bodies))
		w.bodies = append(w.bodies, pb)
	}
	w.order = make([]int, len(w.bodies))
	logger.Debugw("collision world built", "bodies", len(w.bodies), "parts", len(w.parts), "buffer_mm", bufferMM)
	return w, nil
}

// Bodies returns the bodies of the world in their part frames.
func (w *World) Bodies() []Body {
	out := make([]Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b.Body)
	}
	return out
}

// Parts returns the names of the parts bodies are attached to, including the world frame if any
// body is static.
func (w *World) Parts() []string {
	out := make([]string, 0, len(w.parts))
	for name := range w.parts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// UpdatePlacements moves the bodies of every placed part. Placements of parts without bodies are
// ignored. Moving the world frame is an error.
func (w *World) UpdatePlacements(placements []referenceframe.Placement) error {
	for _, placement := range placements {
		if placement.Name == referenceframe.World {
			return errors.New("the world frame cannot be moved")
		}
		if placement.Pose == nil {
			return errors.Errorf("placement of part %q has no pose", placement.Name)
		}
		for _, idx := range w.parts[placement.Name] {
			b := &w.bodies[idx]
			b.placed = b.Geometry.Transform(placement.Pose)
			b.aabb = b.placed.AABB()
		}
	}
	return nil
}

// Query reports every touching pair to the collector.
func (w *World) Query(ctx context.Context, collector *Collector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range w.bodies {
		if w.bodies[i].placed == nil {
			return errors.Wrapf(ErrUnplacedBody, "body %q on part %q", w.bodies[i].ID, w.bodies[i].Part)
		}
		w.order[i] = i
	}
	sort.Slice(w.order, func(i, j int) bool {
		return w.bodies[w.order[i]].aabb.Min.X < w.bodies[w.order[j]].aabb.Min.X
	})

	for oi, ai := range w.order {
		a := &w.bodies[ai]
		for _, bi := range w.order[oi+1:] {
			b := &w.bodies[bi]
			if b.aabb.Min.X > a.aabb.Max.X+w.buffer {
				break
			}
			if a.Static() && b.Static() {
				continue
			}
			if !spatialmath.AABBOverlap(a.aabb, b.aabb, w.buffer) {
				continue
			}
			collides, err := a.placed.CollidesWith(b.placed, w.buffer)
			if err != nil {
				return errors.Wrapf(err, "testing %q against %q", a.ID, b.ID)
			}
			if collides {
				collector.OnCandidatePair(a.ID, b.ID)
			}
		}
	}
	return nil
}

// Clone returns a world with the same bodies and current placements that can be moved
// independently.
func (w *World) Clone() Engine {
	clone := &World{
		bodies: append([]placedBody(nil), w.bodies...),
		parts:  w.parts,
		buffer: w.buffer,
		order:  make([]int, len(w.bodies)),
		logger: w.logger,
	}
	return clone
}
