// Package dedup merges the findings different tools reported for the same issue.
package dedup

import (
	"context"
	"fmt"
	"io"

	"github.com/scanmesh/scanmesh/pkg/cluster"
	"github.com/scanmesh/scanmesh/pkg/controller/output"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/scanmesh/scanmesh/pkg/similarity"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Controller runs the dedup command.
type Controller struct {
	fs     afero.Fs
	stdout io.Writer
	param  *Param
}

type Param struct {
	FindingsFile string
	// Output is the path of the result file. The result is written to stdout if it's empty.
	Output    string
	Threshold float64
	Weights   similarity.Weights
}

// New creates a Controller. The result is written to stdout unless param.Output is set.
func New(fs afero.Fs, stdout io.Writer, param *Param) *Controller {
	return &Controller{
		fs:     fs,
		stdout: stdout,
		param:  param,
	}
}

// Run reads a findings file and writes one consensus finding per cluster.
func (c *Controller) Run(_ context.Context, logE *logrus.Entry) error {
	logE = logE.WithField("findings_file", c.param.FindingsFile)
	calc, err := similarity.New(c.param.Weights)
	if err != nil {
		return fmt.Errorf("create a similarity calculator: %w", err)
	}
	clusterer, err := cluster.New(calc, c.param.Threshold)
	if err != nil {
		return fmt.Errorf("create a clusterer: %w", err)
	}
	file, err := finding.ReadFile(c.fs, c.param.FindingsFile)
	if err != nil {
		return fmt.Errorf("read findings: %w", err)
	}

	consensus := clusterer.Deduplicate(file.Findings, func(processed, total int, message string) {
		logE.WithFields(logrus.Fields{
			"processed": processed,
			"total":     total,
		}).Debug(message)
	})
	logE.WithFields(logrus.Fields{
		"findings":             len(file.Findings),
		"consensus_findings":   len(consensus),
		"similarity_threshold": clusterer.Threshold(),
	}).Info("deduplicated findings")

	if err := output.Write(c.fs, c.stdout, c.param.Output, consensus); err != nil {
		return fmt.Errorf("output consensus findings: %w", err)
	}
	return nil
}
