// Package diff implements the 'scanmesh diff' command.
package diff

import (
	"context"
	"fmt"
	"os"

	"github.com/scanmesh/scanmesh/pkg/cli/flag"
	"github.com/scanmesh/scanmesh/pkg/di"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/urfave-cli-v3-util/log"
	"github.com/urfave/cli/v3"
)

type runner struct {
	logE *logrus.Entry
	gf   *flag.GlobalFlags
}

// New creates the diff command.
func New(logE *logrus.Entry, gf *flag.GlobalFlags) *cli.Command {
	r := &runner{
		logE: logE,
		gf:   gf,
	}
	return r.Command()
}

// Command returns the CLI command definition for comparing two scans.
func (r *runner) Command() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare a baseline scan with a current scan",
		ArgsUsage: "[BASELINE_DIR CURRENT_DIR]",
		Description: `Classify findings as new, resolved, unchanged, or modified.

Compare two results directories:

$ scanmesh diff results/2024-01-01 results/2024-02-01

Compare two scans stored in the history database:

$ scanmesh diff --db .scanmesh/history.db --scan 12 --scan 13

The result is written as JSON and a summary is printed to stderr.
`,
		Action: r.action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the history database",
				Sources: cli.EnvVars("SCANMESH_HISTORY_DB"),
			},
			&cli.StringSliceFlag{
				Name:  "scan",
				Usage: "Scan id. Pass the baseline scan first and the current scan second",
			},
			&cli.BoolFlag{
				Name:  "no-modifications",
				Usage: "Report findings present in both scans as unchanged even if they changed",
			},
			&cli.StringSliceFlag{
				Name:  "severity",
				Usage: "Only report findings of the given severities",
			},
			&cli.StringSliceFlag{
				Name:  "tool",
				Usage: "Only report findings detected by the given tools",
			},
			&cli.StringSliceFlag{
				Name:  "only",
				Usage: "Only report the given categories: new, resolved, modified, unchanged",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path. By default, the result is written to stdout",
			},
		},
	}
}

func (r *runner) action(ctx context.Context, c *cli.Command) error {
	if err := log.Set(r.logE, r.gf.LogLevel, "auto"); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	env := &di.Env{}
	di.SetEnv(env, os.Getenv)
	return di.RunDiff(ctx, r.logE, afero.NewOsFs(), &di.Streams{ //nolint:wrapcheck
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, env, &di.DiffFlags{
		GlobalFlags:     r.gf,
		HistoryDB:       c.String("db"),
		ScanIDs:         c.StringSlice("scan"),
		NoModifications: c.Bool("no-modifications"),
		Severities:      c.StringSlice("severity"),
		Tools:           c.StringSlice("tool"),
		Only:            c.StringSlice("only"),
		Output:          c.String("output"),
		Args:            c.Args().Slice(),
	})
}
