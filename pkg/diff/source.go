package diff

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/scanmesh/scanmesh/pkg/history"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// SourceType is where the findings of a Source were loaded from.
type SourceType string

const (
	SourceDirectory SourceType = "directory"
	SourceSQLite    SourceType = "sqlite"
)

// Source describes where one side of a comparison was loaded from.
type Source struct {
	SourceType    SourceType `json:"source_type"`
	Path          string     `json:"path"`
	Timestamp     string     `json:"timestamp"`
	Profile       string     `json:"profile"`
	TotalFindings int        `json:"total_findings"`
}

// Loader loads the findings of one side of a comparison.
type Loader interface {
	Load(ctx context.Context, logE *logrus.Entry) (*Source, []finding.Finding, error)
}

// findingsFiles are looked up in order under a results directory.
var findingsFiles = []string{ //nolint:gochecknoglobals
	filepath.Join("summaries", "findings.json"),
	"findings.json",
}

// DirectoryLoader loads findings from a results directory.
type DirectoryLoader struct {
	fs  afero.Fs
	dir string
}

// NewDirectoryLoader creates a loader reading the results directory dir.
func NewDirectoryLoader(afs afero.Fs, dir string) *DirectoryLoader {
	return &DirectoryLoader{fs: afs, dir: dir}
}

// Load reads the findings file of the directory.
// A missing directory is apperr.ErrNotFound and a missing or malformed findings file is apperr.ErrInvalidInput.
func (l *DirectoryLoader) Load(_ context.Context, logE *logrus.Entry) (*Source, []finding.Finding, error) {
	fields := logrus.Fields{"results_dir": l.dir}
	exist, err := afero.DirExists(l.fs, l.dir)
	if err != nil {
		return nil, nil, logerr.WithFields(fmt.Errorf("check if the results directory exists: %w", err), fields) //nolint:wrapcheck
	}
	if !exist {
		return nil, nil, logerr.WithFields(fmt.Errorf("results directory doesn't exist: %w", apperr.ErrNotFound), fields) //nolint:wrapcheck
	}

	p, err := l.findFile()
	if err != nil {
		return nil, nil, logerr.WithFields(err, fields) //nolint:wrapcheck
	}
	logE.WithField("findings_file", p).Debug("read a findings file")
	file, err := finding.ReadFile(l.fs, p)
	if err != nil {
		return nil, nil, fmt.Errorf("read findings of a results directory: %w", err)
	}

	src := &Source{
		SourceType:    SourceDirectory,
		Path:          l.dir,
		Timestamp:     file.Meta.Timestamp,
		Profile:       file.Meta.Profile,
		TotalFindings: len(file.Findings),
	}
	if src.Timestamp == "" {
		if fi, err := l.fs.Stat(p); err == nil {
			src.Timestamp = fi.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return src, file.Findings, nil
}

func (l *DirectoryLoader) findFile() (string, error) {
	for _, name := range findingsFiles {
		p := filepath.Join(l.dir, name)
		exist, err := afero.Exists(l.fs, p)
		if err != nil {
			return "", fmt.Errorf("check if a findings file exists: %w", err)
		}
		if exist {
			return p, nil
		}
	}
	return "", fmt.Errorf("results directory has no findings file: %w", apperr.ErrInvalidInput)
}

// ScanReader is the part of the history store the diff engine reads.
type ScanReader interface {
	GetScan(ctx context.Context, id string) (*history.Scan, error)
	ListFindings(ctx context.Context, logE *logrus.Entry, scanID string) ([]finding.Finding, error)
	Close() error
}

// HistoryOpener opens the history database at the given path.
type HistoryOpener func(path string) (ScanReader, error)

func openHistory(path string) (ScanReader, error) {
	return history.Open(path) //nolint:wrapcheck
}

// ScanLoader loads the findings of a stored scan.
type ScanLoader struct {
	store  ScanReader
	dbPath string
	scanID string
}

// NewScanLoader creates a loader reading the scan scanID from store. dbPath is only used to name the source.
func NewScanLoader(store ScanReader, dbPath, scanID string) *ScanLoader {
	return &ScanLoader{store: store, dbPath: dbPath, scanID: scanID}
}

// Load reads the scan and its findings.
func (l *ScanLoader) Load(ctx context.Context, logE *logrus.Entry) (*Source, []finding.Finding, error) {
	scan, err := l.store.GetScan(ctx, l.scanID)
	if err != nil {
		return nil, nil, fmt.Errorf("get a scan: %w", err)
	}
	findings, err := l.store.ListFindings(ctx, logE, l.scanID)
	if err != nil {
		return nil, nil, fmt.Errorf("list findings of a scan: %w", err)
	}
	total := len(findings)
	if scan.TotalFindings != nil {
		total = *scan.TotalFindings
	}
	return &Source{
		SourceType:    SourceSQLite,
		Path:          fmt.Sprintf("%s#%s", l.dbPath, scan.ID),
		Timestamp:     scan.Timestamp,
		Profile:       scan.Profile,
		TotalFindings: total,
	}, findings, nil
}
