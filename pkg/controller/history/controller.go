// Package history lists the scans stored in the history database.
package history

import (
	"context"
	"fmt"
	"io"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/controller/output"
	"github.com/scanmesh/scanmesh/pkg/history"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// Store is the part of the history database the controller reads.
type Store interface {
	ListScans(ctx context.Context, limit int) ([]*history.Scan, error)
	Close() error
}

// Opener opens the history database at path.
type Opener func(path string) (Store, error)

func openStore(path string) (Store, error) {
	return history.Open(path) //nolint:wrapcheck
}

// Controller lists stored scans.
type Controller struct {
	fs     afero.Fs
	stdout io.Writer
	param  *Param
	open   Opener
}

type Param struct {
	HistoryDB string
	Limit     int
	Output    string
}

// New creates a Controller. open may be nil, in which case the SQLite store is used.
func New(fs afero.Fs, stdout io.Writer, param *Param, open Opener) *Controller {
	if open == nil {
		open = openStore
	}
	return &Controller{
		fs:     fs,
		stdout: stdout,
		param:  param,
		open:   open,
	}
}

// Run writes the stored scans from the newest to the oldest as JSON.
func (c *Controller) Run(ctx context.Context, logE *logrus.Entry) error {
	if c.param.HistoryDB == "" {
		return fmt.Errorf("the history database isn't specified: %w", apperr.ErrInvalidInput)
	}
	logE = logE.WithField("history_db", c.param.HistoryDB)
	store, err := c.open(c.param.HistoryDB)
	if err != nil {
		return fmt.Errorf("open the history database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logerr.WithError(logE, err).Warn("close the history database")
		}
	}()
	scans, err := store.ListScans(ctx, c.param.Limit)
	if err != nil {
		return fmt.Errorf("list scans: %w", err)
	}
	logE.WithField("scans", len(scans)).Debug("listed scans")
	if scans == nil {
		scans = []*history.Scan{}
	}
	if err := output.Write(c.fs, c.stdout, c.param.Output, scans); err != nil {
		return fmt.Errorf("output scans: %w", err)
	}
	return nil
}
