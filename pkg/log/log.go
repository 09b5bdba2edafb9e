// Package log creates the logger shared by every command.
package log

import (
	"github.com/sirupsen/logrus"
)

// New returns the root log entry. Library packages receive it as a parameter
// and never configure logrus themselves.
func New(version string) *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger.WithFields(logrus.Fields{
		"version": version,
		"program": "scanmesh",
	})
}
