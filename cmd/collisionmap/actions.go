package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/collisionmap/collision"
	"go.viam.com/collisionmap/collisionmap"
	"go.viam.com/collisionmap/config"
	"go.viam.com/collisionmap/logging"
	"go.viam.com/collisionmap/spatialmath"
	"go.viam.com/collisionmap/utils"
)

// output is what the run command writes with --output.
type output struct {
	Scenario    string               `json:"scenario"`
	Fingerprint string               `json:"fingerprint"`
	Summary     collisionmap.Summary `json:"summary"`
	Grid        *collisionmap.Grid   `json:"grid"`
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	_, _ = fmt.Fprintf(w, format+"\n", a...)
}

func newLogger(c *cli.Context) (logging.Logger, error) {
	level, err := logging.LevelFromString(c.String(flagLogLevel))
	if err != nil {
		return nil, err
	}
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	logger := logging.NewBlankLogger("collisionmap")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(level)
	return logger, nil
}

// RunAction is the corresponding Action for 'run'.
func RunAction(c *cli.Context) error {
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	scenario, err := config.Read(c.Path(flagConfig), logger)
	if err != nil {
		return err
	}
	if workers := c.Int(flagWorkers); workers > 0 {
		scenario.Sweep.Workers = workers
	}
	sweeper, err := scenario.Build(logger)
	if err != nil {
		return err
	}
	if world, ok := sweeper.Engine().(*collision.World); ok {
		logger.Debugw("collision world", "bodies", len(world.Bodies()), "parts", world.Parts())
		if c.Bool(flagBodies) {
			printf(c.App.Writer, "%s", bodiesTable(world))
		}
	}

	ctx := c.Context
	if timeout := c.Duration(flagTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	grid, err := scenario.Path.Compute(ctx, sweeper)
	if err != nil {
		return errors.Wrap(err, "sweep failed")
	}

	summary := grid.Summary()
	fingerprint := fmt.Sprintf("%016x", grid.Fingerprint())
	printf(c.App.Writer, "%d rotations x %d points in %s, fingerprint %s",
		grid.Resolution, grid.PointCount, time.Since(start).Round(time.Millisecond), fingerprint)
	printf(c.App.Writer, "%s", summaryTable(summary, collision.BodyID(c.String(flagBody))))
	if c.Bool(flagMap) {
		printf(c.App.Writer, "%s", mapTable(grid))
	}

	if path := c.Path(flagOutput); path != "" {
		data, err := json.MarshalIndent(output{
			Scenario:    scenario.ConfigFilePath,
			Fingerprint: fingerprint,
			Summary:     summary,
			Grid:        grid,
		}, "", "  ")
		if err != nil {
			return err
		}
		//nolint:gosec
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %q", path)
		}
		logger.Infow("wrote grid", "path", path)
	}
	return nil
}

// bodiesTable lists the bodies of a world grouped by the part they are attached to.
func bodiesTable(world *collision.World) string {
	byPart := map[string][]collision.Body{}
	for _, body := range world.Bodies() {
		byPart[body.Part] = append(byPart[body.Part], body)
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Part", "Body", "Geometry"})
	for _, part := range world.Parts() {
		for _, body := range byPart[part] {
			t.AppendRow(table.Row{part, body.ID, body.Geometry})
		}
	}
	return t.Render()
}

// summaryTable tallies cells by state and, when any cell collided, lists the pairs by the number
// of cells they collided in. A non-empty body restricts the pair list to pairs involving it.
func summaryTable(summary collisionmap.Summary, body collision.BodyID) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"State", "Cells"})
	t.AppendRow(table.Row{collisionmap.CellClear, summary.Clear})
	t.AppendRow(table.Row{collisionmap.CellCollided, summary.Collided})
	t.AppendRow(table.Row{collisionmap.CellUnreachable, summary.Unreachable})
	t.AppendFooter(table.Row{"total", summary.Cells})
	if len(summary.Pairs) == 0 {
		return t.Render()
	}

	pairs := table.NewWriter()
	pairs.AppendHeader(table.Row{"#", "Pair", "Cells"})
	for i, pc := range summary.Pairs {
		if body != "" && !pc.Pair.Has(body) {
			continue
		}
		pairs.AppendRow(table.Row{i + 1, pc.Pair, pc.Cells})
	}
	return t.Render() + "\n" + pairs.Render()
}

// mapTable draws one row per swept rotation and one column per path point: '.' is clear, 'x'
// collided and '-' unreachable.
func mapTable(grid *collisionmap.Grid) string {
	t := table.NewWriter()
	header := table.Row{"#", "Angle"}
	for j := 0; j < grid.PointCount; j++ {
		header = append(header, strconv.Itoa(j))
	}
	t.AppendHeader(header)
	for i := 0; i < grid.Resolution; i++ {
		row := table.Row{i, fmt.Sprintf("%.1f", utils.RadToDeg(grid.Angle(i)))}
		for j := 0; j < grid.PointCount; j++ {
			state, _ := grid.At(i, j)
			row = append(row, cellSymbol(state))
		}
		t.AppendRow(row)
	}
	return t.Render()
}

func cellSymbol(state collisionmap.CellState) string {
	switch state {
	case collisionmap.CellClear:
		return "."
	case collisionmap.CellCollided:
		return "x"
	case collisionmap.CellUnreachable:
		return "-"
	default:
		return "?"
	}
}

func vectorFlag(c *cli.Context, name string) (r3.Vector, error) {
	values := c.Float64Slice(name)
	if len(values) != 3 {
		return r3.Vector{}, errors.Errorf("--%s needs 3 values, got %d", name, len(values))
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}

// PoseAction is the corresponding Action for 'pose'.
func PoseAction(c *cli.Context) error {
	var frame spatialmath.LocalFrame
	point, err := vectorFlag(c, flagPoint)
	if err != nil {
		return err
	}
	if frame.Tangent, err = vectorFlag(c, flagTangent); err != nil {
		return err
	}
	if frame.Normal, err = vectorFlag(c, flagNormal); err != nil {
		return err
	}
	if err := frame.Validate(); err != nil {
		return err
	}

	angles := collisionmap.AdjustAngles(collisionmap.ChannelNone, 0, collisionmap.CellAngles{
		ToolAxis:    utils.DegToRad(c.Float64(flagToolAxisDeg)),
		SideTilt:    utils.DegToRad(c.Float64(flagSideTiltDeg)),
		ForwardTilt: utils.DegToRad(c.Float64(flagForwardTiltDeg)),
	})
	pose := collisionmap.TargetPose(spatialmath.PoseFromFrame(frame, point), angles)

	values := spatialmath.PoseToRowMajor(pose)
	t := table.NewWriter()
	for row := 0; row < 4; row++ {
		r := table.Row{}
		for col := 0; col < 4; col++ {
			r = append(r, fmt.Sprintf("%.6f", values[row*4+col]))
		}
		t.AppendRow(r)
	}
	printf(c.App.Writer, "%s", t.Render())

	ea := pose.Orientation().EulerAngles()
	printf(c.App.Writer, "roll %.3f pitch %.3f yaw %.3f (deg)",
		utils.RadToDeg(ea.Roll), utils.RadToDeg(ea.Pitch), utils.RadToDeg(ea.Yaw))
	return nil
}
