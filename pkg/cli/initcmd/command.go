// Package initcmd implements the 'scanmesh init' command.
package initcmd

import (
	"context"
	"fmt"

	"github.com/scanmesh/scanmesh/pkg/cli/flag"
	"github.com/scanmesh/scanmesh/pkg/controller/initcmd"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/urfave-cli-v3-util/log"
	"github.com/urfave/cli/v3"
)

type runner struct {
	logE *logrus.Entry
	gf   *flag.GlobalFlags
}

// New creates a new init command instance with the provided logger.
// It returns a CLI command that can be registered with the main CLI application.
func New(logE *logrus.Entry, gf *flag.GlobalFlags) *cli.Command {
	r := &runner{
		logE: logE,
		gf:   gf,
	}
	return r.Command()
}

// Command returns the CLI command definition for the init subcommand.
// It defines the command name, usage, description, and action handler.
func (r *runner) Command() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create .scanmesh.yaml if it doesn't exist",
		Description: `Create .scanmesh.yaml if it doesn't exist

$ scanmesh init

You can also pass configuration file path.

e.g.

$ scanmesh init .github/scanmesh.yaml
`,
		Action: r.action,
	}
}

func (r *runner) action(_ context.Context, c *cli.Command) error {
	if err := log.Set(r.logE, r.gf.LogLevel, "auto"); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	configFilePath := c.Args().First()
	if configFilePath == "" {
		configFilePath = r.gf.Config
	}
	if configFilePath == "" {
		configFilePath = ".scanmesh.yaml"
	}
	return initcmd.New(afero.NewOsFs()).Init(r.logE, configFilePath) //nolint:wrapcheck
}
