// Package initcmd writes a template configuration file.
package initcmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	templateConfig = `# yaml-language-server: $schema=json-schema/scanmesh.json
dedup:
  # Minimum similarity for findings of different tools to be merged.
  similarity_threshold: 0.75
  # Weights of the sub scores. They must sum to 1.
  weights:
    location: 0.35
    message: 0.40
    metadata: 0.25
diff:
  detect_modifications: true
  # history_db: .scanmesh/history.db
`
	filePermission os.FileMode = 0o644
)

// Controller creates the configuration file.
type Controller struct {
	fs afero.Fs
}

// New creates a new Controller instance with the provided filesystem.
func New(fs afero.Fs) *Controller {
	return &Controller{fs: fs}
}

// Init creates a configuration file at configFilePath unless it already exists.
func (c *Controller) Init(logE *logrus.Entry, configFilePath string) error {
	f, err := afero.Exists(c.fs, configFilePath)
	if err != nil {
		return fmt.Errorf("check if a configuration file exists: %w", err)
	}
	if f {
		logE.WithField("config_file", configFilePath).Info("the configuration file already exists")
		return nil
	}
	if err := afero.WriteFile(c.fs, configFilePath, []byte(templateConfig), filePermission); err != nil {
		return fmt.Errorf("create a configuration file: %w", err)
	}
	return nil
}
