// Package diff compares a baseline scan with a current scan and reports what changed.
package diff

import (
	"context"
	"fmt"
	"io"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/controller/output"
	"github.com/scanmesh/scanmesh/pkg/diff"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// Controller runs the diff command.
type Controller struct {
	fs      afero.Fs
	stdout  io.Writer
	param   *Param
	engine  *diff.Engine
	summary *Summary
}

// Param selects the two scans and how the result is filtered.
// Either BaselineDir and CurrentDir, or HistoryDB and two ScanIDs are set.
type Param struct {
	BaselineDir         string
	CurrentDir          string
	HistoryDB           string
	ScanIDs             []string
	DetectModifications bool
	Severities          []string
	Tools               []string
	Only                []string
	Output              string
	Stderr              io.Writer
}

// New creates a Controller. opts are passed to the diff engine after the
// modification detection setting of param.
func New(fs afero.Fs, stdout io.Writer, param *Param, opts ...diff.Option) *Controller {
	opts = append([]diff.Option{diff.WithDetectModifications(param.DetectModifications)}, opts...)
	return &Controller{
		fs:      fs,
		stdout:  stdout,
		param:   param,
		engine:  diff.New(fs, opts...),
		summary: NewSummary(param.Stderr),
	}
}

// Run compares the two scans, writes the filtered result as JSON, and prints a summary.
func (c *Controller) Run(ctx context.Context, logE *logrus.Entry) error {
	filter, err := c.filterOptions()
	if err != nil {
		return err
	}
	result, err := c.compare(ctx, logE)
	if err != nil {
		return err
	}
	result = result.Filter(filter)
	st := result.Statistics()
	logE.WithFields(logrus.Fields{
		"new":        st.TotalNew,
		"resolved":   st.TotalResolved,
		"unchanged":  st.TotalUnchanged,
		"modified":   st.TotalModified,
		"net_change": st.NetChange,
	}).Info("compared scans")

	if err := output.Write(c.fs, c.stdout, c.param.Output, result); err != nil {
		return fmt.Errorf("output the diff result: %w", err)
	}
	c.summary.Print(result)
	return nil
}

func (c *Controller) compare(ctx context.Context, logE *logrus.Entry) (*diff.Result, error) {
	if c.param.HistoryDB != "" && len(c.param.ScanIDs) > 0 {
		if len(c.param.ScanIDs) != 2 { //nolint:mnd
			return nil, logerr.WithFields(fmt.Errorf("two scan ids are required: %w", apperr.ErrInvalidInput), logrus.Fields{ //nolint:wrapcheck
				"scan_ids": c.param.ScanIDs,
			})
		}
		logE = logE.WithFields(logrus.Fields{
			"history_db":       c.param.HistoryDB,
			"baseline_scan_id": c.param.ScanIDs[0],
			"current_scan_id":  c.param.ScanIDs[1],
		})
		result, err := c.engine.CompareScans(ctx, logE, c.param.ScanIDs[0], c.param.ScanIDs[1], c.param.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("compare stored scans: %w", err)
		}
		return result, nil
	}
	if c.param.BaselineDir == "" || c.param.CurrentDir == "" {
		return nil, fmt.Errorf("a baseline directory and a current directory are required: %w", apperr.ErrInvalidInput)
	}
	logE = logE.WithFields(logrus.Fields{
		"baseline": c.param.BaselineDir,
		"current":  c.param.CurrentDir,
	})
	result, err := c.engine.CompareDirectories(ctx, logE, c.param.BaselineDir, c.param.CurrentDir)
	if err != nil {
		return nil, fmt.Errorf("compare results directories: %w", err)
	}
	return result, nil
}

func (c *Controller) filterOptions() (diff.FilterOptions, error) {
	opts := diff.FilterOptions{Tools: c.param.Tools}
	for _, s := range c.param.Severities {
		sev, ok := finding.LookupSeverity(s)
		if !ok {
			return opts, logerr.WithFields(fmt.Errorf("unknown severity: %w", apperr.ErrInvalidInput), logrus.Fields{ //nolint:wrapcheck
				"severity": s,
			})
		}
		opts.Severities = append(opts.Severities, sev)
	}
	for _, only := range c.param.Only {
		category, ok := parseCategory(only)
		if !ok {
			return opts, logerr.WithFields(fmt.Errorf("--only must be new, resolved, modified, or unchanged: %w", apperr.ErrInvalidInput), logrus.Fields{ //nolint:wrapcheck
				"only": only,
			})
		}
		opts.Categories = append(opts.Categories, category)
	}
	return opts, nil
}

func parseCategory(s string) (diff.Category, bool) {
	for _, c := range diff.Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
