package history_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/scanmesh/scanmesh/pkg/history"
	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE scans (
	id INTEGER PRIMARY KEY,
	timestamp_iso TEXT,
	profile TEXT,
	total_findings INTEGER
);
CREATE TABLE findings (
	scan_id INTEGER,
	fingerprint TEXT,
	severity TEXT,
	tool TEXT,
	rule_id TEXT,
	path TEXT,
	start_line INTEGER,
	message TEXT,
	raw_finding TEXT
);
`

func createDB(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", p)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stmts := []string{
		schema,
		`INSERT INTO scans VALUES (1, '2024-01-01T00:00:00Z', 'fast', 2)`,
		`INSERT INTO scans VALUES (2, '2024-02-01T00:00:00Z', 'balanced', 1)`,
		`INSERT INTO scans VALUES (3, NULL, NULL, NULL)`,
		`INSERT INTO findings VALUES (1, 'f1', 'high', 'semgrep', 'python.sqli', 'src/app.py', 10, 'SQL injection',
			'{"id":"ignored","severity":"LOW","tags":["sast"],"location":{"path":"x","startLine":1,"endLine":12},"priority":7.5,"raw":{"cwe":"CWE-89"}}')`,
		`INSERT INTO findings VALUES (1, 'f2', 'MODERATE', 'trivy', 'CVE-2021-44228', 'go.sum', NULL, 'log4shell', '{"VulnerabilityID":"CVE-2021-44228"}')`,
		`INSERT INTO findings VALUES (2, 'f1', 'CRITICAL', 'semgrep', 'python.sqli', 'src/app.py', 10, 'SQL injection', 'not json')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(createDB(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Error(err)
		}
	})
	return store
}

func TestOpen_notFound(t *testing.T) {
	t.Parallel()
	_, err := history.Open(filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("wanted ErrNotFound, got %v", err)
	}
}

func TestOpen_reservedCharacters(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"scan?mode=rw.db", "scan#1.db", "scan%20.db"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := filepath.Join(t.TempDir(), name)
			if err := os.Rename(createDB(t), p); err != nil {
				t.Fatal(err)
			}
			store, err := history.Open(p)
			if err != nil {
				t.Fatal(err)
			}
			defer store.Close()
			scan, err := store.GetScan(context.Background(), "2")
			if err != nil {
				t.Fatal(err)
			}
			if scan.Profile != "balanced" {
				t.Fatalf("wanted balanced, got %s", scan.Profile)
			}
		})
	}
}

func TestStore_GetScan(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	scan, err := store.GetScan(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	total := 2
	exp := &history.Scan{ID: "1", Timestamp: "2024-01-01T00:00:00Z", Profile: "fast", TotalFindings: &total}
	if diff := cmp.Diff(exp, scan); diff != "" {
		t.Fatal(diff)
	}

	scan, err = store.GetScan(ctx, "3")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&history.Scan{ID: "3"}, scan); diff != "" {
		t.Fatal(diff)
	}

	if _, err := store.GetScan(ctx, "42"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("wanted ErrNotFound, got %v", err)
	}
}

func TestStore_ListScans(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	data := []struct {
		name  string
		limit int
		exp   []string
	}{
		{name: "all", limit: 0, exp: []string{"2", "1", "3"}},
		{name: "limited", limit: 1, exp: []string{"2"}},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			scans, err := store.ListScans(context.Background(), d.limit)
			if err != nil {
				t.Fatal(err)
			}
			ids := make([]string, len(scans))
			for i, s := range scans {
				ids[i] = s.ID
			}
			if diff := cmp.Diff(d.exp, ids); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestStore_ListFindings(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	logE := logrus.NewEntry(logrus.New())
	priority := 7.5

	data := []struct {
		name   string
		scanID string
		exp    []finding.Finding
	}{
		{
			name:   "columns override raw_finding",
			scanID: "1",
			exp: []finding.Finding{
				{
					ID:       "f1",
					Severity: finding.SeverityHigh,
					RuleID:   "python.sqli",
					Message:  "SQL injection",
					Location: finding.Location{Path: "src/app.py", StartLine: 10, EndLine: 12},
					Tool:     finding.Tool{Name: "semgrep"},
					Raw:      map[string]any{"cwe": "CWE-89"},
					Tags:     finding.Tags{"sast"},
					Priority: &priority,
				},
				{
					ID:       "f2",
					Severity: finding.SeverityMedium,
					RuleID:   "CVE-2021-44228",
					Message:  "log4shell",
					Location: finding.Location{Path: "go.sum"},
					Tool:     finding.Tool{Name: "trivy"},
					Raw:      map[string]any{"VulnerabilityID": "CVE-2021-44228"},
				},
			},
		},
		{
			name:   "unreadable raw_finding",
			scanID: "2",
			exp: []finding.Finding{
				{
					ID:       "f1",
					Severity: finding.SeverityCritical,
					RuleID:   "python.sqli",
					Message:  "SQL injection",
					Location: finding.Location{Path: "src/app.py", StartLine: 10},
					Tool:     finding.Tool{Name: "semgrep"},
				},
			},
		},
		{
			name:   "unknown scan",
			scanID: "42",
		},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			findings, err := store.ListFindings(context.Background(), logE, d.scanID)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(d.exp, findings); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
