package collision

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestBodyPairCanonical(t *testing.T) {
	ids := []BodyID{"base", "link1", "link2", "tool", "Table", "a"}
	for _, a := range ids {
		for _, b := range ids {
			if a == b {
				continue
			}
			p := NewBodyPair(a, b)
			test.That(t, p, test.ShouldEqual, NewBodyPair(b, a))
			test.That(t, p.A < p.B, test.ShouldBeTrue)
			test.That(t, p.Has(a) && p.Has(b), test.ShouldBeTrue)
		}
	}
	test.That(t, NewBodyPair("tool", "base").String(), test.ShouldEqual, "base:tool")
}

func TestFilter(t *testing.T) {
	f := NewFilter(NewBodyPair("link2", "link1"), BodyPair{A: "tool", B: "link2"}, BodyPair{A: "x", B: "x"})
	test.That(t, f.Len(), test.ShouldEqual, 2)
	test.That(t, f.Contains("link1", "link2"), test.ShouldBeTrue)
	test.That(t, f.Contains("link2", "link1"), test.ShouldBeTrue)
	test.That(t, f.Contains("link2", "tool"), test.ShouldBeTrue)
	test.That(t, f.Contains("link1", "tool"), test.ShouldBeFalse)
	test.That(t, f.Pairs(), test.ShouldResemble, []BodyPair{{"link1", "link2"}, {"link2", "tool"}})

	var empty *Filter
	test.That(t, empty.Contains("a", "b"), test.ShouldBeFalse)
	test.That(t, empty.Len(), test.ShouldEqual, 0)
	test.That(t, empty.Pairs(), test.ShouldBeNil)

	f, err := NewFilterFromNames([][2]string{{"base", "link1"}, {"link1", "base"}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Len(), test.ShouldEqual, 1)

	_, err = NewFilterFromNames([][2]string{{"base", "base"}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "itself")
	_, err = NewFilterFromNames([][2]string{{"base", ""}})
	test.That(t, err, test.ShouldNotBeNil)
}

func collect(t *testing.T, filter *Filter, candidates [][2]BodyID) *Collector {
	t.Helper()
	c := NewCollector(filter)
	test.That(t, c.State(), test.ShouldEqual, Fresh)
	test.That(t, c.Begin(), test.ShouldBeNil)
	test.That(t, c.State(), test.ShouldEqual, Populating)
	for _, cand := range candidates {
		c.OnCandidatePair(cand[0], cand[1])
	}
	test.That(t, c.Finalize(), test.ShouldBeNil)
	return c
}

func TestCollectorDedupAndFilter(t *testing.T) {
	filter := NewFilter(NewBodyPair("link1", "link2"))

	for _, tc := range []struct {
		name       string
		candidates [][2]BodyID
		expected   []BodyPair
	}{
		{"empty", nil, nil},
		{"only filtered", [][2]BodyID{{"link1", "link2"}, {"link2", "link1"}}, nil},
		{"self pairs dropped", [][2]BodyID{{"tool", "tool"}}, nil},
		{
			"duplicates in both orders",
			[][2]BodyID{{"tool", "table"}, {"link1", "link2"}, {"table", "tool"}, {"tool", "table"}},
			[]BodyPair{{"table", "tool"}},
		},
		{
			"several pairs",
			[][2]BodyID{{"tool", "table"}, {"link2", "link1"}, {"link1", "fixture"}, {"fixture", "link1"}},
			[]BodyPair{{"fixture", "link1"}, {"table", "tool"}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := collect(t, filter, tc.candidates)
			test.That(t, c.HasCollision(), test.ShouldEqual, len(tc.expected) > 0)
			test.That(t, c.CollidedPairs(), test.ShouldResemble, tc.expected)
			sample, err := c.Sample()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, sample, test.ShouldResemble, Sample{Collided: len(tc.expected) > 0, Pairs: tc.expected})
			c.Release()
			test.That(t, c.State(), test.ShouldEqual, Released)
		})
	}
}

func TestCollectorLifecycle(t *testing.T) {
	c := NewCollector(nil)
	test.That(t, func() { c.OnCandidatePair("a", "b") }, test.ShouldPanic)
	test.That(t, func() { c.HasCollision() }, test.ShouldPanic)
	_, err := c.Sample()
	test.That(t, errors.Is(err, ErrCollectorNotFinalized), test.ShouldBeTrue)
	test.That(t, errors.Is(c.Finalize(), ErrCollectorReused), test.ShouldBeTrue)

	test.That(t, c.Begin(), test.ShouldBeNil)
	test.That(t, errors.Is(c.Begin(), ErrCollectorReused), test.ShouldBeTrue)
	test.That(t, func() { c.CollidedPairs() }, test.ShouldPanic)
	c.OnCandidatePair("a", "b")
	test.That(t, c.Finalize(), test.ShouldBeNil)
	test.That(t, func() { c.OnCandidatePair("c", "d") }, test.ShouldPanic)
	test.That(t, errors.Is(c.Begin(), ErrCollectorReused), test.ShouldBeTrue)
	test.That(t, c.CollidedPairs(), test.ShouldResemble, []BodyPair{{"a", "b"}})
	c.Release()
	test.That(t, func() { c.HasCollision() }, test.ShouldPanic)

	// pooled storage never leaks pairs into the next collector
	next := collect(t, nil, nil)
	test.That(t, next.HasCollision(), test.ShouldBeFalse)
	next.Release()
}
