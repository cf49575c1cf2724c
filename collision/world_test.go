package collision

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/collisionmap/logging"
	"go.viam.com/collisionmap/referenceframe"
	"go.viam.com/collisionmap/spatialmath"
)

func cube(t *testing.T, center r3.Vector, size float64) spatialmath.Geometry {
	t.Helper()
	g, err := spatialmath.NewBox(spatialmath.NewPoseFromPoint(center), r3.Vector{X: size, Y: size, Z: size}, "")
	test.That(t, err, test.ShouldBeNil)
	return g
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	ball, err := spatialmath.NewSphere(spatialmath.NewZeroPose(), 5, "")
	test.That(t, err, test.ShouldBeNil)
	w, err := NewWorld([]Body{
		{ID: "table", Geometry: cube(t, r3.Vector{Z: -50}, 100)},
		{ID: "fixture", Part: referenceframe.World, Geometry: cube(t, r3.Vector{X: 40, Z: 20}, 40)},
		{ID: "link", Part: "arm", Geometry: cube(t, r3.Vector{}, 10)},
		{ID: "tool", Part: "flange", Geometry: ball},
	}, 0, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return w
}

func place(t *testing.T, w Engine, arm, flange r3.Vector) {
	t.Helper()
	err := w.UpdatePlacements([]referenceframe.Placement{
		{Name: "arm", Pose: spatialmath.NewPoseFromPoint(arm)},
		{Name: "flange", Pose: spatialmath.NewPoseFromPoint(flange)},
		{Name: "bodiless", Pose: spatialmath.NewZeroPose()},
	})
	test.That(t, err, test.ShouldBeNil)
}

func TestWorldQuery(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)
	test.That(t, w.Parts(), test.ShouldResemble, []string{"arm", "flange", referenceframe.World})
	test.That(t, len(w.Bodies()), test.ShouldEqual, 4)

	_, err := Evaluate(ctx, w, nil)
	test.That(t, errors.Is(err, ErrUnplacedBody), test.ShouldBeTrue)

	// Everything in free space. The static table and fixture overlap but are never reported.
	place(t, w, r3.Vector{Z: 500}, r3.Vector{Z: 600})
	sample, err := Evaluate(ctx, w, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Collided, test.ShouldBeFalse)
	test.That(t, sample.Pairs, test.ShouldBeNil)

	// The link dips into the table and the fixture, the tool touches the link.
	place(t, w, r3.Vector{X: 18, Z: 2}, r3.Vector{X: 12, Z: 10})
	sample, err = Evaluate(ctx, w, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Pairs, test.ShouldResemble, []BodyPair{{"fixture", "link"}, {"link", "table"}, {"link", "tool"}})

	sample, err = Evaluate(ctx, w, NewFilter(NewBodyPair("tool", "link")))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Pairs, test.ShouldResemble, []BodyPair{{"fixture", "link"}, {"link", "table"}})
}

func TestWorldBuffer(t *testing.T) {
	ctx := context.Background()
	bodies := []Body{
		{ID: "a", Part: "p", Geometry: cube(t, r3.Vector{}, 2)},
		{ID: "b", Geometry: cube(t, r3.Vector{X: 3}, 2)},
	}
	tight, err := NewWorld(bodies, 0, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	loose, err := NewWorld(bodies, 1.5, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	for _, w := range []*World{tight, loose} {
		test.That(t, w.UpdatePlacements([]referenceframe.Placement{{Name: "p", Pose: spatialmath.NewZeroPose()}}), test.ShouldBeNil)
	}
	sample, err := Evaluate(ctx, tight, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Collided, test.ShouldBeFalse)
	sample, err = Evaluate(ctx, loose, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Pairs, test.ShouldResemble, []BodyPair{{"a", "b"}})
}

func TestWorldErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	g := cube(t, r3.Vector{}, 1)
	_, err := NewWorld([]Body{{ID: "a", Geometry: g}, {ID: "a", Geometry: g}}, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate")
	_, err = NewWorld([]Body{{ID: "a"}}, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewWorld([]Body{{Geometry: g}}, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewWorld(nil, -1, logger)
	test.That(t, err, test.ShouldNotBeNil)

	w := newTestWorld(t)
	err = w.UpdatePlacements([]referenceframe.Placement{{Name: referenceframe.World, Pose: spatialmath.NewZeroPose()}})
	test.That(t, err, test.ShouldNotBeNil)
	err = w.UpdatePlacements([]referenceframe.Placement{{Name: "arm"}})
	test.That(t, err, test.ShouldNotBeNil)

	place(t, w, r3.Vector{Z: 500}, r3.Vector{Z: 600})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Evaluate(ctx, w, nil)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestWorldClone(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)
	place(t, w, r3.Vector{Z: 500}, r3.Vector{Z: 600})
	clone := w.Clone()

	place(t, clone, r3.Vector{Z: -2}, r3.Vector{Z: 600})
	sample, err := Evaluate(ctx, clone, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Pairs, test.ShouldResemble, []BodyPair{{"link", "table"}})

	sample, err = Evaluate(ctx, w, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Collided, test.ShouldBeFalse)
}
