// Package diff compares the findings of two scans by fingerprint and classifies
// each finding as new, resolved, unchanged, or modified.
package diff

import (
	"context"
	"fmt"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// Engine compares a baseline scan with a current scan.
// It holds no state between comparisons and may be used concurrently.
type Engine struct {
	fs                  afero.Fs
	detectModifications bool
	openHistory         HistoryOpener
}

// Option configures an Engine.
type Option func(*Engine)

// WithDetectModifications enables or disables change detection of findings present in both scans.
// When disabled, every such finding is unchanged. It is enabled by default.
func WithDetectModifications(enabled bool) Option {
	return func(e *Engine) {
		e.detectModifications = enabled
	}
}

// WithHistoryOpener replaces how the history database is opened.
func WithHistoryOpener(opener HistoryOpener) Option {
	return func(e *Engine) {
		e.openHistory = opener
	}
}

// New creates an Engine reading results directories from afs.
// Modification detection is enabled by default.
func New(afs afero.Fs, opts ...Option) *Engine {
	e := &Engine{
		fs:                  afs,
		detectModifications: true,
		openHistory:         openHistory,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CompareDirectories compares two results directories.
func (e *Engine) CompareDirectories(ctx context.Context, logE *logrus.Entry, baselineDir, currentDir string) (*Result, error) {
	return e.Compare(ctx, logE, NewDirectoryLoader(e.fs, baselineDir), NewDirectoryLoader(e.fs, currentDir))
}

// CompareScans compares two scans stored in the history database at dbPath.
func (e *Engine) CompareScans(ctx context.Context, logE *logrus.Entry, baselineID, currentID, dbPath string) (*Result, error) {
	store, err := e.openHistory(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open the history database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logerr.WithError(logE, err).Warn("close the history database")
		}
	}()
	return e.Compare(ctx, logE, NewScanLoader(store, dbPath, baselineID), NewScanLoader(store, dbPath, currentID))
}

// Compare loads a baseline and a current source and compares them.
// Exactly two sources are required.
func (e *Engine) Compare(ctx context.Context, logE *logrus.Entry, sources ...Loader) (*Result, error) {
	if len(sources) != 2 { //nolint:mnd
		return nil, logerr.WithFields(fmt.Errorf("exactly two sources are required: %w", apperr.ErrInvalidInput), logrus.Fields{ //nolint:wrapcheck
			"sources": len(sources),
		})
	}
	baselineSrc, baseline, err := sources[0].Load(ctx, logE.WithField("side", "baseline"))
	if err != nil {
		return nil, fmt.Errorf("load the baseline: %w", err)
	}
	currentSrc, current, err := sources[1].Load(ctx, logE.WithField("side", "current"))
	if err != nil {
		return nil, fmt.Errorf("load the current scan: %w", err)
	}
	result := e.Diff(logE, baseline, current)
	result.BaselineSource = baselineSrc
	result.CurrentSource = currentSrc
	return result, nil
}

// Diff classifies findings by fingerprint. The lists of the result follow the input order.
func (e *Engine) Diff(logE *logrus.Entry, baseline, current []finding.Finding) *Result {
	baseline = indexable(logE.WithField("side", "baseline"), baseline)
	current = indexable(logE.WithField("side", "current"), current)

	baseIdx := make(map[string]int, len(baseline))
	for i := range baseline {
		baseIdx[baseline[i].ID] = i
	}
	curIdx := make(map[string]int, len(current))
	for i := range current {
		curIdx[current[i].ID] = i
	}

	result := &Result{}
	for i := range current {
		cur := &current[i]
		j, ok := baseIdx[cur.ID]
		if !ok {
			result.New = append(result.New, *cur)
			continue
		}
		base := &baseline[j]
		if !e.detectModifications {
			result.Unchanged = append(result.Unchanged, *cur)
			continue
		}
		changes := detectChanges(base, cur)
		if len(changes) == 0 {
			result.Unchanged = append(result.Unchanged, *cur)
			continue
		}
		m := ModifiedFinding{
			Fingerprint: cur.ID,
			Changes:     changes,
			Baseline:    *base,
			Current:     *cur,
			RiskDelta:   riskDelta(base, cur),
		}
		logE.WithFields(logrus.Fields{
			"fingerprint":  m.Fingerprint,
			"change_types": changeTypes(changes),
			"risk_delta":   m.RiskDelta,
		}).Debug("finding is modified")
		result.Modified = append(result.Modified, m)
	}
	for i := range baseline {
		if _, ok := curIdx[baseline[i].ID]; !ok {
			result.Resolved = append(result.Resolved, baseline[i])
		}
	}
	return result
}

// indexable drops findings that can't be matched by fingerprint: findings without an id,
// and repeated ids after the first one.
func indexable(logE *logrus.Entry, findings []finding.Finding) []finding.Finding {
	kept := make([]finding.Finding, 0, len(findings))
	seen := make(map[string]struct{}, len(findings))
	for i := range findings {
		f := &findings[i]
		if f.ID == "" {
			logerr.WithError(logE, apperr.ErrMalformedRecord).WithFields(logrus.Fields{
				"index": i,
				"tool":  f.Tool.Name,
			}).Warn("skip a finding without id")
			continue
		}
		if _, ok := seen[f.ID]; ok {
			logE.WithFields(logrus.Fields{
				"index":       i,
				"fingerprint": f.ID,
			}).Warn("skip a finding with a duplicated id")
			continue
		}
		seen[f.ID] = struct{}{}
		kept = append(kept, *f)
	}
	return kept
}
