// Package flag defines the flags shared by every command.
package flag

import "github.com/urfave/cli/v3"

// GlobalFlags are the flags of the root command. Every subcommand reads them.
type GlobalFlags struct {
	LogLevel string
	Config   string
}

// Flags returns the flag definitions bound to gf.
func (gf *GlobalFlags) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level",
			Sources:     cli.EnvVars("SCANMESH_LOG_LEVEL"),
			Destination: &gf.LogLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "configuration file path",
			Sources:     cli.EnvVars("SCANMESH_CONFIG"),
			Destination: &gf.Config,
		},
	}
}
