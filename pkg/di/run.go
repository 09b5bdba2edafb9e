// Package di wires command-line flags, environment variables, and the configuration file
// into the controllers.
package di

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/config"
	"github.com/scanmesh/scanmesh/pkg/controller/dedup"
	ctrldiff "github.com/scanmesh/scanmesh/pkg/controller/diff"
	ctrlhistory "github.com/scanmesh/scanmesh/pkg/controller/history"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Streams are the standard streams commands write to.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// RunDedup merges duplicated findings of a findings file.
func RunDedup(ctx context.Context, logE *logrus.Entry, fs afero.Fs, streams *Streams, flags *DedupFlags) error {
	if len(flags.Args) != 1 {
		return fmt.Errorf("exactly one findings file is required: %w", apperr.ErrInvalidInput)
	}
	cfg, err := readConfig(fs, flags.Config)
	if err != nil {
		return err
	}
	param := &dedup.Param{
		FindingsFile: flags.Args[0],
		Output:       flags.Output,
		Threshold:    cfg.Dedup.SimilarityThreshold,
		Weights:      cfg.Dedup.Weights,
	}
	if flags.ThresholdSet {
		param.Threshold = flags.Threshold
	}
	return dedup.New(fs, streams.Stdout, param).Run(ctx, logE) //nolint:wrapcheck
}

// RunDiff compares two results directories or two stored scans.
func RunDiff(ctx context.Context, logE *logrus.Entry, fs afero.Fs, streams *Streams, env *Env, flags *DiffFlags) error {
	if env != nil && env.IsGitHubActions {
		color.NoColor = false
	}
	cfg, err := readConfig(fs, flags.Config)
	if err != nil {
		return err
	}
	param, err := buildDiffParam(cfg, env, flags)
	if err != nil {
		return err
	}
	param.Stderr = streams.Stderr
	return ctrldiff.New(fs, streams.Stdout, param).Run(ctx, logE) //nolint:wrapcheck
}

func buildDiffParam(cfg *config.Config, env *Env, flags *DiffFlags) (*ctrldiff.Param, error) {
	param := &ctrldiff.Param{
		DetectModifications: cfg.Diff.DetectModifications && !flags.NoModifications,
		Severities:          flags.Severities,
		Tools:               flags.Tools,
		Only:                flags.Only,
		Output:              flags.Output,
	}
	switch {
	case len(flags.ScanIDs) > 0:
		if len(flags.Args) > 0 {
			return nil, fmt.Errorf("results directories can't be passed with --scan: %w", apperr.ErrInvalidInput)
		}
		param.ScanIDs = flags.ScanIDs
		param.HistoryDB = historyDB(flags.HistoryDB, env, cfg.Diff.HistoryDB)
		if param.HistoryDB == "" {
			return nil, fmt.Errorf("--db, SCANMESH_HISTORY_DB, or diff.history_db is required to compare stored scans: %w", apperr.ErrInvalidInput)
		}
	case len(flags.Args) == 2: //nolint:mnd
		param.BaselineDir = flags.Args[0]
		param.CurrentDir = flags.Args[1]
	default:
		return nil, fmt.Errorf("a baseline directory and a current directory are required: %w", apperr.ErrInvalidInput)
	}
	return param, nil
}

// RunHistory lists stored scans.
func RunHistory(ctx context.Context, logE *logrus.Entry, fs afero.Fs, streams *Streams, env *Env, flags *HistoryFlags) error {
	cfg, err := readConfig(fs, flags.Config)
	if err != nil {
		return err
	}
	param := &ctrlhistory.Param{
		HistoryDB: historyDB(flags.HistoryDB, env, cfg.Diff.HistoryDB),
		Limit:     flags.Limit,
		Output:    flags.Output,
	}
	return ctrlhistory.New(fs, streams.Stdout, param, nil).Run(ctx, logE) //nolint:wrapcheck
}

func readConfig(fs afero.Fs, configFilePath string) (*config.Config, error) {
	cfgFinder := config.NewFinder(fs)
	cfgReader := config.NewReader(fs)
	configPath, err := cfgFinder.Find(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("find configuration file: %w", err)
	}
	cfg := config.Default()
	if err := cfgReader.Read(cfg, configPath); err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}
	return cfg, nil
}
