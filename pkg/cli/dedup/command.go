// Package dedup implements the 'scanmesh dedup' command.
package dedup

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

// New creates the dedup command.
func New(logE *logrus.Entry, gf *flag.GlobalFlags) *cli.Command {
	r := &runner{
		logE: logE,
		gf:   gf,
	}
	return r.Command()
}

// Command returns the CLI command definition for the dedup command.
// It merges findings of a findings file that describe the same issue.
func (r *runner) Command() *cli.Command {
	return &cli.Command{
		Name:      "dedup",
		Usage:     "Merge findings different tools reported for the same issue",
		ArgsUsage: "FINDINGS_JSON",
		Description: `Cluster the findings of a findings file and output one consensus finding per cluster.

$ scanmesh dedup results/summaries/findings.json

The similarity threshold defaults to dedup.similarity_threshold of the configuration file.

$ scanmesh dedup --threshold 0.8 -o deduped.json findings.json
`,
		Action: r.action,
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "Minimum similarity in [0, 1] for findings to be merged",
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
	return di.RunDedup(ctx, r.logE, afero.NewOsFs(), &di.Streams{ //nolint:wrapcheck
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, &di.DedupFlags{
		GlobalFlags:  r.gf,
		Threshold:    c.Float("threshold"),
		ThresholdSet: c.IsSet("threshold"),
		Output:       c.String("output"),
		Args:         c.Args().Slice(),
	})
}
