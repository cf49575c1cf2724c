package inject

import (
	"context"

	"go.viam.com/collisionmap/collision"
	"go.viam.com/collisionmap/referenceframe"
)

// Engine is an injected collision engine.
type Engine struct {
	collision.Engine
	UpdatePlacementsFunc func(placements []referenceframe.Placement) error
	QueryFunc            func(ctx context.Context, collector *collision.Collector) error
	CloneFunc            func() collision.Engine
}

// UpdatePlacements calls the injected UpdatePlacements or the real version.
func (e *Engine) UpdatePlacements(placements []referenceframe.Placement) error {
	if e.UpdatePlacementsFunc == nil {
		return e.Engine.UpdatePlacements(placements)
	}
	return e.UpdatePlacementsFunc(placements)
}

// Query calls the injected Query or the real version.
func (e *Engine) Query(ctx context.Context, collector *collision.Collector) error {
	if e.QueryFunc == nil {
		return e.Engine.Query(ctx, collector)
	}
	return e.QueryFunc(ctx, collector)
}

// Clone calls the injected Clone or the real version.
func (e *Engine) Clone() collision.Engine {
	if e.CloneFunc == nil {
		return e.Engine.Clone()
	}
	return e.CloneFunc()
}
