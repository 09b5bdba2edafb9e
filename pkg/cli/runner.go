// Package cli defines the command tree of scanmesh.
package cli

import (
	"context"

	"github.com/scanmesh/scanmesh/pkg/cli/dedup"
	"github.com/scanmesh/scanmesh/pkg/cli/diff"
	"github.com/scanmesh/scanmesh/pkg/cli/flag"
	"github.com/scanmesh/scanmesh/pkg/cli/history"
	"github.com/scanmesh/scanmesh/pkg/cli/initcmd"
	"github.com/sirupsen/logrus"
	"github.com/suzuki-shunsuke/urfave-cli-v3-util/urfave"
	"github.com/urfave/cli/v3"
)

// Run builds the command tree and runs it with args.
func Run(ctx context.Context, logE *logrus.Entry, ldFlags *urfave.LDFlags, args ...string) error {
	gf := &flag.GlobalFlags{}
	cmd := &cli.Command{
		Name:                  "scanmesh",
		Usage:                 "Merge duplicated security findings and compare scans",
		Version:               ldFlags.Version + " (" + ldFlags.Commit + ")",
		Flags:                 gf.Flags(),
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			initcmd.New(logE, gf),
			dedup.New(logE, gf),
			diff.New(logE, gf),
			history.New(logE, gf),
			newVersionCommand(),
		},
	}
	return cmd.Run(ctx, args) //nolint:wrapcheck
}

func newVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version",
		Action: func(_ context.Context, c *cli.Command) error {
			cli.ShowVersion(c.Root())
			return nil
		},
	}
}
