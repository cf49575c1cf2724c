// Package main is the collisionmap command: it computes collision maps for scenarios and prints
// tool poses for single path samples.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/collisionmap/logging"
)

const (
	// Flags.
	flagConfig         = "config"
	flagDebug          = "debug"
	flagLogLevel       = "log-level"
	flagOutput         = "output"
	flagWorkers        = "workers"
	flagTimeout        = "timeout"
	flagMap            = "map"
	flagBodies         = "bodies"
	flagBody           = "body"
	flagPoint          = "point"
	flagTangent        = "tangent"
	flagNormal         = "normal"
	flagToolAxisDeg    = "tool-axis-deg"
	flagSideTiltDeg    = "side-tilt-deg"
	flagForwardTiltDeg = "forward-tilt-deg"
)

func newApp() *cli.App {
	return &cli.App{
		Name:            "collisionmap",
		Usage:           "compute reachability and collision maps along a machining path",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "minimum level to log: debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "sweep every path sample of a scenario and print the resulting map",
				UsageText: "collisionmap run --config <scenario.yaml> [other options]",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "load the scenario from `FILE`",
					},
					&cli.PathFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "write the grid as JSON to `FILE`",
					},
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "override the number of sweep workers",
					},
					&cli.DurationFlag{
						Name:  flagTimeout,
						Usage: "give up on the sweep after this long",
					},
					&cli.BoolFlag{
						Name:  flagMap,
						Usage: "print every cell of the grid",
					},
					&cli.BoolFlag{
						Name:  flagBodies,
						Usage: "print the bodies of the collision world before sweeping",
					},
					&cli.StringFlag{
						Name:  flagBody,
						Usage: "only list collided pairs that involve body `ID`",
					},
				},
				Action: RunAction,
			},
			{
				Name:  "pose",
				Usage: "print the end effector target for one path sample",
				Flags: []cli.Flag{
					&cli.Float64SliceFlag{
						Name:     flagPoint,
						Required: true,
						Usage:    "path point as x,y,z in millimeters",
					},
					&cli.Float64SliceFlag{
						Name:     flagTangent,
						Required: true,
						Usage:    "unit tangent of the path as x,y,z",
					},
					&cli.Float64SliceFlag{
						Name:     flagNormal,
						Required: true,
						Usage:    "unit surface normal as x,y,z",
					},
					&cli.Float64Flag{Name: flagToolAxisDeg},
					&cli.Float64Flag{Name: flagSideTiltDeg},
					&cli.Float64Flag{Name: flagForwardTiltDeg},
				},
				Action: PoseAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger := logging.NewLogger("collisionmap")
		logger.Errorw("command failed", "error", err)
		//nolint:errcheck
		logger.Sync()
		os.Exit(1)
	}
}
