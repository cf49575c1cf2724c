package collision

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// CollectorState is the lifecycle stage of a Collector.
type CollectorState int

const (
	// Fresh collectors have not started a query.
	Fresh CollectorState = iota
	// Populating collectors accept candidate pairs from exactly one query.
	Populating
	// Finalized collectors are read only.
	Finalized
	// Released collectors have returned their storage and can no longer be read.
	Released
)

func (s CollectorState) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Populating:
		return "populating"
	case Finalized:
		return "finalized"
	case Released:
		return "released"
	}
	return fmt.Sprintf("CollectorState(%d)", int(s))
}

var (
	// ErrCollectorNotFinalized is returned when results are read before the query finished.
	ErrCollectorNotFinalized = errors.New("collector results read before the query was finalized")
	// ErrCollectorReused is returned when a collector is started or finalized out of order.
	ErrCollectorReused = errors.New("collector is single use")
)

var pairSetPool = sync.Pool{
	New: func() any { return make(map[BodyPair]struct{}) },
}

// Sample is the outcome of one collision query: whether any unfiltered pair touched, and which.
type Sample struct {
	Collided bool
	Pairs    []BodyPair
}

// Collector accumulates the unique, unfiltered pairs reported by one broadphase query. It moves
// from Fresh to Populating on Begin and to Finalized on Finalize; it cannot be restarted.
// A Collector is not safe for concurrent use.
type Collector struct {
	filter *Filter
	state  CollectorState
	pairs  map[BodyPair]struct{}
}

// NewCollector returns a fresh collector bound to filter, which may be nil.
func NewCollector(filter *Filter) *Collector {
	return &Collector{filter: filter, state: Fresh}
}

// State returns the lifecycle stage.
func (c *Collector) State() CollectorState {
	return c.state
}

// Begin starts the query.
func (c *Collector) Begin() error {
	if c.state != Fresh {
		return errors.Wrapf(ErrCollectorReused, "cannot begin a %s collector", c.state)
	}
	c.pairs = pairSetPool.Get().(map[BodyPair]struct{})
	c.state = Populating
	return nil
}

// OnCandidatePair is called by the engine for every overlapping pair it finds. Self pairs and
// filtered pairs are dropped and repeats are ignored. Calling it outside a query is a programming
// error and panics.
func (c *Collector) OnCandidatePair(a, b BodyID) {
	if c.state != Populating {
		panic(fmt.Sprintf("candidate pair %s:%s reported to a %s collector", a, b, c.state))
	}
	if a == b || c.filter.Contains(a, b) {
		return
	}
	c.pairs[NewBodyPair(a, b)] = struct{}{}
}

// Finalize ends the query and makes the results readable.
func (c *Collector) Finalize() error {
	if c.state != Populating {
		return errors.Wrapf(ErrCollectorReused, "cannot finalize a %s collector", c.state)
	}
	c.state = Finalized
	return nil
}

// HasCollision reports whether any unfiltered pair was collected. It panics before Finalize.
func (c *Collector) HasCollision() bool {
	c.mustBeFinalized()
	return len(c.pairs) > 0
}

// CollidedPairs returns a sorted copy of the collected pairs. It panics before Finalize.
func (c *Collector) CollidedPairs() []BodyPair {
	c.mustBeFinalized()
	if len(c.pairs) == 0 {
		return nil
	}
	out := make([]BodyPair, 0, len(c.pairs))
	for p := range c.pairs {
		out = append(out, p)
	}
	SortPairs(out)
	return out
}

// Sample returns the finalized result.
func (c *Collector) Sample() (Sample, error) {
	if c.state != Finalized {
		return Sample{}, errors.Wrapf(ErrCollectorNotFinalized, "collector is %s", c.state)
	}
	pairs := c.CollidedPairs()
	return Sample{Collided: len(pairs) > 0, Pairs: pairs}, nil
}

// Release returns the collector's storage to the pool. Results must be read first.
func (c *Collector) Release() {
	if c.pairs != nil {
		clear(c.pairs)
		pairSetPool.Put(c.pairs)
		c.pairs = nil
	}
	c.state = Released
}

func (c *Collector) mustBeFinalized() {
	if c.state != Finalized {
		panic(fmt.Sprintf("collector results read while %s", c.state))
	}
}
