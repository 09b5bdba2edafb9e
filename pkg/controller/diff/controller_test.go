package diff_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/controller/diff"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

func newFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"baseline/summaries/findings.json": `[
			{"id": "f1", "severity": "HIGH", "message": "SQL injection", "location": {"path": "app.py", "startLine": 3}, "tool": "semgrep"},
			{"id": "f2", "severity": "MEDIUM", "message": "XSS", "tool": "semgrep"}
		]`,
		"current/summaries/findings.json": `[
			{"id": "f2", "severity": "HIGH", "message": "XSS", "tool": "semgrep"},
			{"id": "f3", "severity": "LOW", "message": "weak hash", "tool": "bandit"}
		]`,
	}
	for p, content := range files {
		if err := afero.WriteFile(fs, p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestController_Run(t *testing.T) {
	t.Parallel()
	data := []struct {
		name        string
		param       *diff.Param
		expNew      []string
		expResolved []string
		expModified []string
	}{
		{
			name:        "all",
			param:       &diff.Param{BaselineDir: "baseline", CurrentDir: "current", DetectModifications: true},
			expNew:      []string{"f3"},
			expResolved: []string{"f1"},
			expModified: []string{"f2"},
		},
		{
			name:        "only new and resolved",
			param:       &diff.Param{BaselineDir: "baseline", CurrentDir: "current", DetectModifications: true, Only: []string{"new", "resolved"}},
			expNew:      []string{"f3"},
			expResolved: []string{"f1"},
			expModified: []string{},
		},
		{
			name:        "severity and tool",
			param:       &diff.Param{BaselineDir: "baseline", CurrentDir: "current", DetectModifications: true, Severities: []string{"high"}, Tools: []string{"semgrep"}},
			expNew:      []string{},
			expResolved: []string{"f1"},
			expModified: []string{"f2"},
		},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}
			d.param.Stderr = stderr
			ctrl := diff.New(newFS(t), stdout, d.param)
			if err := ctrl.Run(context.Background(), logrus.NewEntry(logrus.New())); err != nil {
				t.Fatal(err)
			}
			var got struct {
				New      []struct{ ID string } `json:"new"`
				Resolved []struct{ ID string } `json:"resolved"`
				Modified []struct {
					Fingerprint string `json:"fingerprint"`
				} `json:"modified"`
				Statistics struct {
					NetChange int `json:"net_change"`
				} `json:"statistics"`
			}
			if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			gotIDs := [][]string{{}, {}, {}}
			for _, f := range got.New {
				gotIDs[0] = append(gotIDs[0], f.ID)
			}
			for _, f := range got.Resolved {
				gotIDs[1] = append(gotIDs[1], f.ID)
			}
			for _, m := range got.Modified {
				gotIDs[2] = append(gotIDs[2], m.Fingerprint)
			}
			if diff := cmp.Diff([][]string{d.expNew, d.expResolved, d.expModified}, gotIDs); diff != "" {
				t.Fatal(diff)
			}
			if got.Statistics.NetChange != len(d.expNew)-len(d.expResolved) {
				t.Fatalf("statistics must follow the filtered lists, got net change %d", got.Statistics.NetChange)
			}
			if !strings.Contains(stderr.String(), "net change") {
				t.Fatalf("summary is missing: %q", stderr.String())
			}
		})
	}
}

func TestController_Run_errors(t *testing.T) {
	t.Parallel()
	data := []struct {
		name    string
		param   *diff.Param
		wantErr error
	}{
		{
			name:    "missing current directory",
			param:   &diff.Param{BaselineDir: "baseline"},
			wantErr: apperr.ErrInvalidInput,
		},
		{
			name:    "unknown directory",
			param:   &diff.Param{BaselineDir: "baseline", CurrentDir: "unknown"},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "one scan id",
			param:   &diff.Param{HistoryDB: "history.db", ScanIDs: []string{"1"}},
			wantErr: apperr.ErrInvalidInput,
		},
		{
			name:    "unknown severity",
			param:   &diff.Param{BaselineDir: "baseline", CurrentDir: "current", Severities: []string{"urgent"}},
			wantErr: apperr.ErrInvalidInput,
		},
		{
			name:    "unknown category",
			param:   &diff.Param{BaselineDir: "baseline", CurrentDir: "current", Only: []string{"fixed"}},
			wantErr: apperr.ErrInvalidInput,
		},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			err := diff.New(newFS(t), &bytes.Buffer{}, d.param).Run(context.Background(), logrus.NewEntry(logrus.New()))
			if !errors.Is(err, d.wantErr) {
				t.Fatalf("wanted %v, got %v", d.wantErr, err)
			}
		})
	}
}
