package kinematics

import (
	"context"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/collisionmap/logging"
	"go.viam.com/collisionmap/referenceframe"
	"go.viam.com/collisionmap/spatialmath"
)

// Part names a SerialArm reports for its base and its tool. Links are named after their joints.
const (
	BasePartName = "base"
	ToolPartName = "tool"
)

// jointMutation is how far, in radians, a single joint is moved to restart a stuck solve.
const jointMutation = 0.05

// Joint is a revolute joint. Offset is the translation from the previous joint frame (or the base)
// to this joint, expressed in the previous frame. Axis is the rotation axis in this joint's frame.
type Joint struct {
	Name   string
	Axis   r3.Vector
	Offset r3.Vector
	Limit  referenceframe.Limit
}

// IKConfig tunes the damped least squares solver. Zero fields take the defaults.
type IKConfig struct {
	// Iterations is the number of steps taken from each seed before restarting.
	Iterations              int     `json:"iterations" yaml:"iterations"`
	Attempts                int     `json:"attempts" yaml:"attempts"`
	PositionToleranceMM     float64 `json:"position_tolerance_mm" yaml:"position_tolerance_mm"`
	OrientationToleranceRad float64 `json:"orientation_tolerance_rad" yaml:"orientation_tolerance_rad"`
	Damping                 float64 `json:"damping" yaml:"damping"`
	MaxStepRad              float64 `json:"max_step_rad" yaml:"max_step_rad"`
	// OrientationWeight scales orientation error, in mm per radian, against position error.
	OrientationWeight float64 `json:"orientation_weight" yaml:"orientation_weight"`
	Seed              int64   `json:"seed" yaml:"seed"`
}

// DefaultIKConfig is the solver configuration used for zero IKConfig fields.
var DefaultIKConfig = IKConfig{
	Iterations:              150,
	Attempts:                16,
	PositionToleranceMM:     0.1,
	OrientationToleranceRad: 1e-3,
	Damping:                 1,
	MaxStepRad:              0.2,
	OrientationWeight:       100,
	Seed:                    1,
}

func (cfg IKConfig) withDefaults() IKConfig {
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIKConfig.Iterations
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultIKConfig.Attempts
	}
	if cfg.PositionToleranceMM <= 0 {
		cfg.PositionToleranceMM = DefaultIKConfig.PositionToleranceMM
	}
	if cfg.OrientationToleranceRad <= 0 {
		cfg.OrientationToleranceRad = DefaultIKConfig.OrientationToleranceRad
	}
	if cfg.Damping <= 0 {
		cfg.Damping = DefaultIKConfig.Damping
	}
	if cfg.MaxStepRad <= 0 {
		cfg.MaxStepRad = DefaultIKConfig.MaxStepRad
	}
	if cfg.OrientationWeight <= 0 {
		cfg.OrientationWeight = DefaultIKConfig.OrientationWeight
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultIKConfig.Seed
	}
	return cfg
}

// SerialArm is a chain of revolute joints mounted on a fixed base with a rigid tool on the last
// link. It implements Model.
type SerialArm struct {
	name       string
	base       spatialmath.Pose
	tool       spatialmath.Pose
	joints     []Joint
	limits     []referenceframe.Limit
	inputs     []referenceframe.Input
	placements []referenceframe.Placement
	ik         IKConfig
	rnd        *rand.Rand
	logger     logging.Logger
}

// NewSerialArm builds an arm and computes its placements at the zero inputs, clamped to the joint
// limits. A nil base or tool is the identity.
func NewSerialArm(
	name string,
	base spatialmath.Pose,
	joints []Joint,
	tool spatialmath.Pose,
	ik IKConfig,
	logger logging.Logger,
) (*SerialArm, error) {
	if name == "" {
		return nil, errors.New("arm needs a name")
	}
	if len(joints) == 0 {
		return nil, errors.Errorf("arm %q has no joints", name)
	}
	if base == nil {
		base = spatialmath.NewZeroPose()
	}
	if tool == nil {
		tool = spatialmath.NewZeroPose()
	}
	if logger == nil {
		logger = logging.NewBlankLogger(name)
	}
	seen := map[string]bool{BasePartName: true, ToolPartName: true, referenceframe.World: true}
	arm := &SerialArm{
		name:   name,
		base:   base,
		tool:   tool,
		joints: make([]Joint, 0, len(joints)),
		limits: make([]referenceframe.Limit, 0, len(joints)),
		inputs: make([]referenceframe.Input, 0, len(joints)),
		ik:     ik.withDefaults(),
		logger: logger,
	}
	for i, j := range joints {
		if j.Name == "" {
			return nil, errors.Errorf("joint %d of arm %q has no name", i, name)
		}
		if seen[j.Name] {
			return nil, errors.Errorf("joint name %q is already used", j.Name)
		}
		seen[j.Name] = true
		norm := j.Axis.Norm()
		if norm < 1e-9 {
			return nil, errors.Errorf("joint %q has a zero axis", j.Name)
		}
		j.Axis = j.Axis.Mul(1 / norm)
		if j.Limit.Min > j.Limit.Max || math.IsNaN(j.Limit.Min) || math.IsNaN(j.Limit.Max) {
			return nil, errors.Errorf("joint %q has limits [%f, %f]", j.Name, j.Limit.Min, j.Limit.Max)
		}
		arm.joints = append(arm.joints, j)
		arm.limits = append(arm.limits, j.Limit)
		arm.inputs = append(arm.inputs, referenceframe.Input{Value: j.Limit.Clamp(0)})
	}
	//nolint:gosec
	arm.rnd = rand.New(rand.NewSource(arm.ik.Seed))
	if err := arm.ForwardKinematics(); err != nil {
		return nil, err
	}
	return arm, nil
}

// Name returns the arm's name.
func (a *SerialArm) Name() string {
	return a.name
}

// DoF returns the joint limits.
func (a *SerialArm) DoF() []referenceframe.Limit {
	return append([]referenceframe.Limit(nil), a.limits...)
}

// Inputs returns the current joint positions.
func (a *SerialArm) Inputs() []referenceframe.Input {
	return append([]referenceframe.Input(nil), a.inputs...)
}

// SetInputs moves the joints without recomputing placements.
func (a *SerialArm) SetInputs(inputs []referenceframe.Input) error {
	if err := referenceframe.ValidateInputs(a.limits, inputs); err != nil {
		return err
	}
	a.inputs = append(a.inputs[:0], inputs...)
	return nil
}

// Transform returns the tool pose for the given inputs. Limits are not checked.
func (a *SerialArm) Transform(inputs []referenceframe.Input) (spatialmath.Pose, error) {
	if len(inputs) != len(a.joints) {
		return nil, referenceframe.NewIncorrectDoFError(len(inputs), len(a.joints))
	}
	return a.chain(referenceframe.InputsToFloats(inputs)).tool, nil
}

// EndEffectorPose returns the tool pose as of the last ForwardKinematics.
func (a *SerialArm) EndEffectorPose() spatialmath.Pose {
	return a.placements[len(a.placements)-1].Pose
}

// ForwardKinematics recomputes the base, link and tool placements from the current inputs.
func (a *SerialArm) ForwardKinematics() error {
	cs := a.chain(referenceframe.InputsToFloats(a.inputs))
	placements := make([]referenceframe.Placement, 0, len(a.joints)+2)
	placements = append(placements, referenceframe.Placement{Name: BasePartName, Pose: a.base})
	for i, j := range a.joints {
		placements = append(placements, referenceframe.Placement{Name: j.Name, Pose: cs.links[i]})
	}
	a.placements = append(placements, referenceframe.Placement{Name: ToolPartName, Pose: cs.tool})
	return nil
}

// Placements returns the placements computed by the last ForwardKinematics.
func (a *SerialArm) Placements() []referenceframe.Placement {
	return append([]referenceframe.Placement(nil), a.placements...)
}

// Clone returns an independent arm at the same inputs. The clone's random restarts are seeded
// from this arm's generator, so Clone itself is not safe for concurrent use.
func (a *SerialArm) Clone() Model {
	clone := *a
	clone.joints = append([]Joint(nil), a.joints...)
	clone.limits = append([]referenceframe.Limit(nil), a.limits...)
	clone.inputs = append([]referenceframe.Input(nil), a.inputs...)
	clone.placements = append([]referenceframe.Placement(nil), a.placements...)
	//nolint:gosec
	clone.rnd = rand.New(rand.NewSource(a.rnd.Int63()))
	return &clone
}

// SolveIK runs damped least squares from the current inputs, then from single joint mutations of
// them, then from random inputs, until a seed converges or the attempts run out. On success the
// solution becomes the current inputs.
func (a *SerialArm) SolveIK(ctx context.Context, target spatialmath.Pose) (bool, error) {
	if target == nil {
		return false, errors.New("nil ik target")
	}
	start := referenceframe.InputsToFloats(a.inputs)
	seed := start
	for attempt := 0; attempt < a.ik.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if solution, ok := a.solveFrom(seed, target); ok {
			solved := referenceframe.FloatsToInputs(solution)
			a.logger.Debugw("ik solved", "arm", a.name, "attempt", attempt,
				"joint_travel", referenceframe.InputsL2Distance(a.inputs, solved))
			a.inputs = solved
			return true, nil
		}
		seed = a.restartSeed(start, attempt)
	}
	a.logger.Debugw("ik found no solution", "arm", a.name, "attempts", a.ik.Attempts, "target", target)
	return false, nil
}

// restartSeed returns the seed following a failed attempt: start with one joint moved by
// ±jointMutation for the first 2·DoF restarts, random inputs after that.
func (a *SerialArm) restartSeed(start []float64, attempt int) []float64 {
	if attempt < 2*len(start) {
		seed := append([]float64(nil), start...)
		joint := attempt / 2
		amount := jointMutation
		if attempt%2 == 1 {
			amount = -amount
		}
		seed[joint] = a.limits[joint].Clamp(seed[joint] + amount)
		return seed
	}
	return referenceframe.InputsToFloats(referenceframe.RandomInputs(a.limits, a.rnd))
}

func (a *SerialArm) solveFrom(seed []float64, target spatialmath.Pose) ([]float64, bool) {
	q := append([]float64(nil), seed...)
	for iter := 0; ; iter++ {
		cs := a.chain(q)
		e, posErr, rotErr := a.poseError(cs.tool, target)
		if posErr <= a.ik.PositionToleranceMM && rotErr <= a.ik.OrientationToleranceRad {
			return q, true
		}
		if iter == a.ik.Iterations {
			return nil, false
		}
		dq, err := dampedLeastSquares(a.jacobian(cs), e, a.ik.Damping)
		if err != nil {
			return nil, false
		}
		if largest := floats.Norm(dq, math.Inf(1)); largest > a.ik.MaxStepRad {
			floats.Scale(a.ik.MaxStepRad/largest, dq)
		}
		for i := range q {
			q[i] = a.limits[i].Clamp(q[i] + dq[i])
		}
	}
}

// chainState is the world geometry of the arm at one set of inputs.
type chainState struct {
	links   []spatialmath.Pose
	origins []r3.Vector
	axes    []r3.Vector
	tool    spatialmath.Pose
}

func (a *SerialArm) chain(q []float64) chainState {
	cs := chainState{
		links:   make([]spatialmath.Pose, len(a.joints)),
		origins: make([]r3.Vector, len(a.joints)),
		axes:    make([]r3.Vector, len(a.joints)),
	}
	current := a.base
	for i, j := range a.joints {
		current = spatialmath.Compose(current, spatialmath.NewPoseFromPoint(j.Offset))
		cs.origins[i] = current.Point()
		cs.axes[i] = current.Orientation().RotationMatrix().Mul(j.Axis)
		spin := &spatialmath.R4AA{Theta: q[i], RX: j.Axis.X, RY: j.Axis.Y, RZ: j.Axis.Z}
		current = spatialmath.Compose(current, spatialmath.NewPose(r3.Vector{}, spin))
		cs.links[i] = current
	}
	cs.tool = spatialmath.Compose(current, a.tool)
	return cs
}

// jacobian returns the 6×DoF geometric jacobian of the tool point, position rows first, with the
// orientation rows scaled by the orientation weight.
func (a *SerialArm) jacobian(cs chainState) *mat.Dense {
	j := mat.NewDense(6, len(a.joints), nil)
	toolPt := cs.tool.Point()
	w := a.ik.OrientationWeight
	for i, axis := range cs.axes {
		linear := axis.Cross(toolPt.Sub(cs.origins[i]))
		j.Set(0, i, linear.X)
		j.Set(1, i, linear.Y)
		j.Set(2, i, linear.Z)
		j.Set(3, i, w*axis.X)
		j.Set(4, i, w*axis.Y)
		j.Set(5, i, w*axis.Z)
	}
	return j
}

// poseError returns the weighted 6-vector from current to target in world coordinates, with the
// unweighted position distance and rotation angle.
func (a *SerialArm) poseError(current, target spatialmath.Pose) (*mat.VecDense, float64, float64) {
	dp := target.Point().Sub(current.Point())
	aa := spatialmath.OrientationBetween(current.Orientation(), target.Orientation()).AxisAngles()
	rot := aa.Axis().Mul(aa.Theta * a.ik.OrientationWeight)
	e := mat.NewVecDense(6, []float64{dp.X, dp.Y, dp.Z, rot.X, rot.Y, rot.Z})
	return e, dp.Norm(), aa.Theta
}

// dampedLeastSquares returns Jᵀ(JJᵀ + λ²I)⁻¹e.
func dampedLeastSquares(j *mat.Dense, e *mat.VecDense, damping float64) ([]float64, error) {
	rows, _ := j.Dims()
	var jjt mat.Dense
	jjt.Mul(j, j.T())
	for i := 0; i < rows; i++ {
		jjt.Set(i, i, jjt.At(i, i)+damping*damping)
	}
	var y mat.VecDense
	if err := y.SolveVec(&jjt, e); err != nil {
		return nil, err
	}
	var dq mat.VecDense
	dq.MulVec(j.T(), &y)
	return append([]float64(nil), dq.RawVector().Data...), nil
}
