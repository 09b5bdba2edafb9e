package dedup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/controller/dedup"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/scanmesh/scanmesh/pkg/similarity"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const findingsJSON = `[
  {"id": "semgrep-1", "severity": "MEDIUM", "ruleId": "python.sqli", "message": "SQL injection",
   "location": {"path": "src/app.py", "startLine": 10}, "tool": {"name": "semgrep"}, "raw": {"cwe": "CWE-89"}},
  {"id": "bandit-1", "severity": "HIGH", "ruleId": "B608", "message": "SQL injection",
   "location": {"path": "src/app.py", "startLine": 10}, "tool": {"name": "bandit"}, "raw": {"issue_cwe": {"id": 89}}},
  {"id": "gitleaks-1", "severity": "CRITICAL", "message": "AWS secret",
   "location": {"path": "config.py", "startLine": 3}, "tool": "gitleaks"}
]`

func TestController_Run(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "findings.json", []byte(findingsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout := &bytes.Buffer{}
	ctrl := dedup.New(fs, stdout, &dedup.Param{
		FindingsFile: "findings.json",
		Threshold:    0.75,
		Weights:      similarity.DefaultWeights(),
	})
	if err := ctrl.Run(context.Background(), logrus.NewEntry(logrus.New())); err != nil {
		t.Fatal(err)
	}
	var got []finding.Finding
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("wanted 2 consensus findings, got %d", len(got))
	}
	if got[1].ID != "cluster-bandit-1" || len(got[1].DetectedBy) != 2 {
		t.Fatalf("unexpected consensus finding: %+v", got[1])
	}
}

func TestController_Run_errors(t *testing.T) {
	t.Parallel()
	data := []struct {
		name    string
		param   *dedup.Param
		wantErr error
	}{
		{
			name:    "missing file",
			param:   &dedup.Param{FindingsFile: "missing.json", Threshold: 0.75, Weights: similarity.DefaultWeights()},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "invalid threshold",
			param:   &dedup.Param{FindingsFile: "findings.json", Threshold: 2, Weights: similarity.DefaultWeights()},
			wantErr: apperr.ErrInvalidInput,
		},
		{
			name:    "invalid weights",
			param:   &dedup.Param{FindingsFile: "findings.json", Threshold: 0.75},
			wantErr: apperr.ErrInvalidInput,
		},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "findings.json", []byte(findingsJSON), 0o644); err != nil {
				t.Fatal(err)
			}
			err := dedup.New(fs, &bytes.Buffer{}, d.param).Run(context.Background(), logrus.NewEntry(logrus.New()))
			if !errors.Is(err, d.wantErr) {
				t.Fatalf("wanted %v, got %v", d.wantErr, err)
			}
		})
	}
}
