package config

import (
	"context"
	"math"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/collisionmap/collision"
	"go.viam.com/collisionmap/collisionmap"
	"go.viam.com/collisionmap/logging"
	"go.viam.com/collisionmap/spatialmath"
	"go.viam.com/collisionmap/testutils"
)

const minimalScenario = `
sweep:
  install_method: hand_workpiece_external_tool
  sweep_option: side_tilt
  resolution: 2
arm:
  name: planar
  joints:
    - {name: j1, axis: {z: 1}}
    - {name: j2, axis: {z: 1}, offset_mm: {x: 300}}
  tool:
    translation: {x: 200}
bodies:
  - {id: post, geometry: {dims_mm: {x: 10, y: 10, z: 10}, pose: {translation: {x: 2000}}}}
  - {id: link, part: j2, geometry: {type: sphere, radius_mm: 20}}
path:
  samples:
`

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	scenario, err := Read("testdata/scenario.yaml", logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, scenario.ConfigFilePath, test.ShouldEqual, "testdata/scenario.yaml")
	test.That(t, scenario.Sweep, test.ShouldResemble, collisionmap.Config{
		InstallMethod: collisionmap.ExternalWorkpieceHandTool,
		SweepOption:   collisionmap.SweepToolAxis,
		Resolution:    4,
		Workers:       2,
	})
	test.That(t, scenario.Arm.Name, test.ShouldEqual, "six_axis")
	test.That(t, len(scenario.Arm.Joints), test.ShouldEqual, 6)
	test.That(t, scenario.Arm.Joints[1].OffsetMM.Z, test.ShouldEqual, 160)
	test.That(t, scenario.Arm.IK.Attempts, test.ShouldEqual, 8)
	test.That(t, scenario.CollisionBufferMM, test.ShouldEqual, 1)
	test.That(t, len(scenario.Bodies), test.ShouldEqual, 6)
	test.That(t, scenario.Bodies[5].Geometry.Type, test.ShouldEqual, spatialmath.STLType)
	test.That(t, scenario.AllowedCollisions[0], test.ShouldResemble, AllowedCollision{A: "table", B: "pedestal"})
	test.That(t, len(scenario.Path.Samples), test.ShouldEqual, 3)
	test.That(t, scenario.Path.UsesPoses(), test.ShouldBeFalse)

	framePath := scenario.Path.FramePath()
	test.That(t, framePath.ForwardTiltAngles[1], test.ShouldAlmostEqual, 10*math.Pi/180)
	test.That(t, framePath.SideTiltAngles[2], test.ShouldAlmostEqual, -15*math.Pi/180)
	test.That(t, framePath.Frames[0].Validate(), test.ShouldBeNil)

	t.Run("environment", func(t *testing.T) {
		t.Setenv("COLLISIONMAP_RESOLUTION", "9")
		scenario, err := Read("testdata/scenario.yaml", logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, scenario.Sweep.Resolution, test.ShouldEqual, 9)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Read("testdata/nope.yaml", logger)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestBuildAndCompute(t *testing.T) {
	t.Setenv("COLLISIONMAP_RESOLUTION", "2")
	logger := logging.NewTestLogger(t)
	scenario, err := Read("testdata/scenario.yaml", logger)
	test.That(t, err, test.ShouldBeNil)

	sweeper, err := scenario.Build(logger)
	test.That(t, err, test.ShouldBeNil)
	world, ok := sweeper.Engine().(*collision.World)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(world.Bodies()), test.ShouldEqual, 6)
	test.That(t, world.Parts(), test.ShouldResemble, []string{"base", "j2", "j3", "tool", "world"})

	grid, err := scenario.Path.Compute(context.Background(), sweeper)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, grid.Len(), test.ShouldEqual, 6)
	test.That(t, grid.Summary().Cells, test.ShouldEqual, 6)

	allowed := collision.NewFilter(
		collision.NewBodyPair("table", "pedestal"),
		collision.NewBodyPair("pedestal", "upper_arm"),
		collision.NewBodyPair("upper_arm", "forearm"),
		collision.NewBodyPair("forearm", "spindle"),
	)
	for k, state := range grid.States {
		if state != collisionmap.CellCollided {
			test.That(t, grid.Collided[k], test.ShouldBeFalse)
			test.That(t, grid.Pairs[k], test.ShouldBeEmpty)
			continue
		}
		test.That(t, grid.Collided[k], test.ShouldBeTrue)
		test.That(t, grid.Pairs[k], test.ShouldNotBeEmpty)
		for _, pair := range grid.Pairs[k] {
			test.That(t, allowed.Contains(pair.A, pair.B), test.ShouldBeFalse)
		}
	}
}

func TestPosePath(t *testing.T) {
	logger := logging.NewTestLogger(t)
	yaml := minimalScenario + `
    - {pose: [1, 0, 0, 400, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1], tool_axis_deg: 90}
    - {pose: [0, -1, 0, 0, 1, 0, 0, 400, 0, 0, 1, 0, 0, 0, 0, 1]}
`
	scenario, err := FromReader("", strings.NewReader(yaml), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scenario.Path.UsesPoses(), test.ShouldBeTrue)
	test.That(t, scenario.Sweep.InstallMethod, test.ShouldEqual, collisionmap.HandWorkpieceExternalTool)
	test.That(t, scenario.Sweep.SweepOption, test.ShouldEqual, collisionmap.SweepSideTilt)

	posePath, err := scenario.Path.PosePath()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(posePath.Poses), test.ShouldEqual, 2)
	test.That(t, posePath.Poses[1].Point().Y, test.ShouldEqual, 400)
	test.That(t, posePath.ToolAxisAngles[0], test.ShouldAlmostEqual, math.Pi/2)

	sweeper, err := scenario.Build(logger)
	test.That(t, err, test.ShouldBeNil)
	grid, err := scenario.Path.Compute(context.Background(), sweeper)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, grid.Len(), test.ShouldEqual, 4)

	t.Run("improper rotation", func(t *testing.T) {
		scenario.Path.Samples[0].Pose = []float64{-1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
		_, err := scenario.Path.PosePath()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "sample 0")
	})
}

func TestValidation(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("unknown field", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(minimalScenario+"    - {point: {x: 1}, colour: red}\n"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "colour")
	})

	t.Run("every problem is reported", func(t *testing.T) {
		yaml := `
sweep: {resolution: 0}
arm: {joints: [{name: j1}]}
collision_buffer_mm: -1
bodies: [{part: j1}]
allowed_collisions: [{a: j1}]
path:
  samples:
    - {point: {x: 1}, normal: {z: 1}}
    - {pose: [1, 0, 0, 0]}
`
		_, err := FromReader("", strings.NewReader(yaml), logger)
		test.That(t, err, test.ShouldNotBeNil)
		msg := err.Error()
		for _, fragment := range []string{
			`error validating "sweep"`,
			`error validating "arm": "name" is required`,
			`error validating "arm.joints.0": "axis" is required`,
			`error validating "collision_buffer_mm"`,
			`error validating "bodies.0": "id" is required`,
			`error validating "allowed_collisions.0"`,
			`error validating "path.samples.0": "tangent" is required`,
			`error validating "path.samples.1": samples must all be poses or all be frames`,
		} {
			test.That(t, msg, test.ShouldContainSubstring, fragment)
		}
	})

	t.Run("bad pose length", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(minimalScenario+"    - {pose: [1, 0, 0]}\n"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "pose needs 16 values")
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(minimalScenario), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `"samples" is required`)
	})

	t.Run("unknown install method", func(t *testing.T) {
		yaml := strings.Replace(minimalScenario, "hand_workpiece_external_tool", "both_hands", 1)
		_, err := FromReader("", strings.NewReader(yaml+"    - {pose: [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]}\n"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "both_hands")
	})
}

func TestBuildErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	scenarioFile := testutils.WriteTempFile(t, "scenario.yaml",
		minimalScenario+"    - {pose: [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]}\n")
	scenario, err := Read(scenarioFile, logger)
	test.That(t, err, test.ShouldBeNil)

	t.Run("unknown part", func(t *testing.T) {
		bad := *scenario
		bad.Bodies = []Body{{ID: "ghost", Part: "j7", Geometry: scenario.Bodies[1].Geometry}}
		_, err := bad.Build(logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `unknown part "j7"`)
	})

	t.Run("missing stl relative to the scenario", func(t *testing.T) {
		bad := *scenario
		bad.Bodies = []Body{{ID: "mesh", Geometry: spatialmath.GeometryConfig{Type: spatialmath.STLType, File: "mesh.stl"}}}
		_, err := bad.Build(logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "mesh.stl")
	})

	t.Run("self pair allowed", func(t *testing.T) {
		bad := *scenario
		bad.AllowedCollisions = []AllowedCollision{{A: "post", B: "post"}}
		_, err := bad.Build(logger)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
