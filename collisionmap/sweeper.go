// Package collisionmap sweeps a tool along a machining path, rotating it about a redundant axis,
// and records for every (rotation, path sample) cell whether the manipulator can reach the pose
// and, if it can, which bodies collide.
package collisionmap

import (
	"context"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/collisionmap/collision"
	"go.viam.com/collisionmap/kinematics"
	"go.viam.com/collisionmap/logging"
	"go.viam.com/collisionmap/spatialmath"
	"go.viam.com/collisionmap/utils"
)

var (
	// ErrMismatchedPathLengths is returned when the per sample arrays of a path differ in length.
	ErrMismatchedPathLengths = errors.New("path arrays have different lengths")
	// ErrEmptyPath is returned for a path with no samples.
	ErrEmptyPath = errors.New("path has no samples")
)

// Config selects how a sweep samples the swept rotation.
type Config struct {
	InstallMethod InstallMethod `json:"install_method" yaml:"install_method"`
	SweepOption   SweepOption   `json:"sweep_option" yaml:"sweep_option"`
	// Resolution is the number of rotation samples, the number of rows of the grid.
	Resolution int `json:"resolution" yaml:"resolution"`
	// Workers is the number of goroutines evaluating cells. Zero means utils.ParallelFactor.
	Workers int `json:"workers" yaml:"workers"`
}

// Validate returns every problem with the config.
func (cfg Config) Validate() error {
	var err error
	if cfg.Resolution <= 0 {
		err = multierr.Append(err, errors.Errorf("resolution must be positive, got %d", cfg.Resolution))
	}
	if _, ok := installMethodNames[cfg.InstallMethod]; !ok {
		err = multierr.Append(err, errors.Errorf("unknown install method %d", int(cfg.InstallMethod)))
	}
	if _, ok := sweepOptionNames[cfg.SweepOption]; !ok {
		err = multierr.Append(err, errors.Errorf("unknown sweep option %d", int(cfg.SweepOption)))
	}
	if cfg.Workers < 0 {
		err = multierr.Append(err, errors.Errorf("workers must not be negative, got %d", cfg.Workers))
	}
	return err
}

// FramePath is a machining path given as points with their local frames.
type FramePath struct {
	Points            []r3.Vector
	Frames            []spatialmath.LocalFrame
	ToolAxisAngles    []float64
	SideTiltAngles    []float64
	ForwardTiltAngles []float64
}

// PosePath is a machining path given as one full pose per sample.
type PosePath struct {
	Poses             []spatialmath.Pose
	ToolAxisAngles    []float64
	SideTiltAngles    []float64
	ForwardTiltAngles []float64
}

func pathAngles(n int, toolAxis, sideTilt, forwardTilt []float64) ([]CellAngles, error) {
	if len(toolAxis) != n || len(sideTilt) != n || len(forwardTilt) != n {
		return nil, errors.Wrapf(ErrMismatchedPathLengths,
			"%d samples, %d tool axis, %d side tilt, %d forward tilt angles",
			n, len(toolAxis), len(sideTilt), len(forwardTilt))
	}
	angles := make([]CellAngles, n)
	for j := range angles {
		angles[j] = CellAngles{ToolAxis: toolAxis[j], SideTilt: sideTilt[j], ForwardTilt: forwardTilt[j]}
	}
	return angles, nil
}

// Sweeper computes collision maps. It owns its model and engine: callers must not use them while
// the sweeper holds them. One sweep runs at a time.
type Sweeper struct {
	mu     sync.Mutex
	model  kinematics.Model
	engine collision.Engine
	filter *collision.Filter
	cfg    Config
	logger logging.Logger
}

// NewSweeper returns a sweeper that takes ownership of model and engine. The filter is shared and
// must not change while sweeps run.
func NewSweeper(
	model kinematics.Model,
	engine collision.Engine,
	filter *collision.Filter,
	cfg Config,
	logger logging.Logger,
) (*Sweeper, error) {
	if model == nil {
		return nil, errors.New("sweeper needs a kinematic model")
	}
	if engine == nil {
		return nil, errors.New("sweeper needs a collision engine")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid sweep config")
	}
	if cfg.Workers == 0 {
		cfg.Workers = utils.ParallelFactor
	}
	if logger == nil {
		logger = logging.NewBlankLogger("collisionmap")
	}
	return &Sweeper{model: model, engine: engine, filter: filter, cfg: cfg, logger: logger}, nil
}

// Config returns the sweep configuration.
func (s *Sweeper) Config() Config {
	return s.cfg
}

// Engine returns the owned collision engine.
func (s *Sweeper) Engine() collision.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// ReplaceEngine hands a new engine to the sweeper and returns the one it owned. It waits for a
// running sweep to finish.
func (s *Sweeper) ReplaceEngine(engine collision.Engine) (collision.Engine, error) {
	if engine == nil {
		return nil, errors.New("cannot replace the collision engine with nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.engine
	s.engine = engine
	return old, nil
}

// ComputeFromFrames sweeps a path given as points and local frames. Each sample's path pose has
// rotation columns (tangent, normal × tangent, normal).
func (s *Sweeper) ComputeFromFrames(ctx context.Context, path FramePath) (*Grid, error) {
	n := len(path.Points)
	if len(path.Frames) != n {
		return nil, errors.Wrapf(ErrMismatchedPathLengths, "%d points, %d frames", n, len(path.Frames))
	}
	angles, err := pathAngles(n, path.ToolAxisAngles, path.SideTiltAngles, path.ForwardTiltAngles)
	if err != nil {
		return nil, err
	}
	poses := make([]spatialmath.Pose, n)
	for j, frame := range path.Frames {
		if err := frame.Validate(); err != nil {
			return nil, errors.Wrapf(err, "frame of sample %d", j)
		}
		poses[j] = spatialmath.PoseFromFrame(frame, path.Points[j])
	}
	return s.sweep(ctx, poses, angles)
}

// ComputeFromPoses sweeps a path given as one full pose per sample.
func (s *Sweeper) ComputeFromPoses(ctx context.Context, path PosePath) (*Grid, error) {
	angles, err := pathAngles(len(path.Poses), path.ToolAxisAngles, path.SideTiltAngles, path.ForwardTiltAngles)
	if err != nil {
		return nil, err
	}
	for j, pose := range path.Poses {
		if pose == nil {
			return nil, errors.Errorf("pose of sample %d is nil", j)
		}
	}
	return s.sweep(ctx, path.Poses, angles)
}

// cellWorker evaluates cells with a model and engine that no other goroutine touches.
type cellWorker struct {
	model  kinematics.Model
	engine collision.Engine
}

func (s *Sweeper) sweep(ctx context.Context, poses []spatialmath.Pose, angles []CellAngles) (*Grid, error) {
	if len(poses) == 0 {
		return nil, ErrEmptyPath
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.New()
	channel := SweepChannel(s.cfg.InstallMethod, s.cfg.SweepOption)
	grid := newGrid(s.cfg.Resolution, len(poses), s.cfg.SweepOption.StepAngle(s.cfg.Resolution))
	ranges := utils.PartitionWork(grid.Len(), s.cfg.Workers)

	s.logger.Infow("starting collision map sweep",
		"run", runID.String(),
		"install_method", s.cfg.InstallMethod,
		"sweep_option", s.cfg.SweepOption,
		"resolution", s.cfg.Resolution,
		"points", len(poses),
		"workers", len(ranges),
	)
	if channel == ChannelNone && s.cfg.Resolution > 1 {
		s.logger.Warnw("no angle absorbs the swept rotation for this install method, every row repeats the path angles",
			"run", runID.String(), "install_method", s.cfg.InstallMethod)
	}
	start := time.Now()

	run := func(ctx context.Context, w cellWorker, wr utils.WorkRange) error {
		for k := wr.From; k < wr.To; k++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			i, j := k/grid.PointCount, k%grid.PointCount
			cellAngles := AdjustAngles(channel, grid.Angle(i), angles[j])
			if err := s.evaluateCell(ctx, w, grid, k, TargetPose(poses[j], cellAngles)); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return errors.Wrapf(err, "cell %d (rotation %d, point %d)", k, i, j)
			}
		}
		return nil
	}

	var err error
	if len(ranges) == 1 {
		err = run(ctx, cellWorker{model: s.model, engine: s.engine}, ranges[0])
	} else {
		group, groupCtx := errgroup.WithContext(ctx)
		for _, wr := range ranges {
			w := cellWorker{model: s.model.Clone(), engine: s.engine.Clone()}
			group.Go(func() error {
				return utils.RecoverToError(func() error {
					return run(groupCtx, w, wr)
				})
			})
		}
		err = group.Wait()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		s.logger.Errorw("collision map sweep failed", "run", runID.String(), "error", err)
		return nil, err
	}

	summary := grid.Summary()
	s.logger.Infow("finished collision map sweep",
		"run", runID.String(),
		"elapsed", time.Since(start),
		"cells", summary.Cells,
		"unreachable", summary.Unreachable,
		"collided", summary.Collided,
	)
	return grid, nil
}

// evaluateCell solves for target, and when the model can reach it, moves the engine's bodies to
// the solution and records the collision sample in cell k.
func (s *Sweeper) evaluateCell(ctx context.Context, w cellWorker, grid *Grid, k int, target spatialmath.Pose) error {
	reached, err := w.model.SolveIK(ctx, target)
	if err != nil {
		return errors.Wrap(err, "inverse kinematics failed")
	}
	if !reached {
		s.logger.Debugw("target unreachable", "cell", k, "target", target)
		grid.States[k] = CellUnreachable
		return nil
	}
	if err := w.model.ForwardKinematics(); err != nil {
		return errors.Wrap(err, "forward kinematics failed")
	}
	if err := w.engine.UpdatePlacements(w.model.Placements()); err != nil {
		return errors.Wrap(err, "updating body placements")
	}
	sample, err := collision.Evaluate(ctx, w.engine, s.filter)
	if err != nil {
		return err
	}
	grid.record(k, sample)
	return nil
}
