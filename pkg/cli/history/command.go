// Package history implements the 'scanmesh history' command.
package history

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

// New creates the history command.
func New(logE *logrus.Entry, gf *flag.GlobalFlags) *cli.Command {
	r := &runner{
		logE: logE,
		gf:   gf,
	}
	return r.Command()
}

// Command returns the CLI command definition for listing stored scans.
func (r *runner) Command() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List scans stored in the history database",
		Description: `List stored scans from the newest to the oldest.

$ scanmesh history --db .scanmesh/history.db --limit 10
`,
		Action: r.action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the history database",
				Sources: cli.EnvVars("SCANMESH_HISTORY_DB"),
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of scans. 0 lists every scan",
				Value: 20, //nolint:mnd
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
	return di.RunHistory(ctx, r.logE, afero.NewOsFs(), &di.Streams{ //nolint:wrapcheck
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, env, &di.HistoryFlags{
		GlobalFlags: r.gf,
		HistoryDB:   c.String("db"),
		Limit:       c.Int("limit"),
		Output:      c.String("output"),
	})
}
