package collision

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/collisionmap/referenceframe"
)

// Engine is a collision world whose bodies follow the placements of a kinematic model.
// Implementations are stateful and not safe for concurrent use; use Clone to give each
// goroutine its own instance.
type Engine interface {
	// UpdatePlacements moves every body attached to a placed part.
	UpdatePlacements(placements []referenceframe.Placement) error
	// Query reports every overlapping pair of bodies to collector.OnCandidatePair, synchronously,
	// then returns. The collector is already populating.
	Query(ctx context.Context, collector *Collector) error
	// Clone returns an independent engine with the same bodies and placements.
	Clone() Engine
}

// Evaluate runs one query against engine with a fresh collector bound to filter and returns the
// finalized sample.
func Evaluate(ctx context.Context, engine Engine, filter *Filter) (Sample, error) {
	collector := NewCollector(filter)
	defer collector.Release()
	if err := collector.Begin(); err != nil {
		return Sample{}, err
	}
	if err := engine.Query(ctx, collector); err != nil {
		return Sample{}, errors.Wrap(err, "collision query failed")
	}
	if err := collector.Finalize(); err != nil {
		return Sample{}, err
	}
	return collector.Sample()
}
