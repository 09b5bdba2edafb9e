package finding_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scanmesh/scanmesh/pkg/finding"
)

func TestFinding_CWEs(t *testing.T) {
	t.Parallel()
	data := []struct {
		name string
		raw  map[string]any
		exp  []string
	}{
		{name: "nil raw", raw: nil, exp: nil},
		{name: "bare string", raw: map[string]any{"cwe": "CWE-89"}, exp: []string{"89"}},
		{name: "bare number", raw: map[string]any{"cwe": 79.0}, exp: []string{"79"}},
		{name: "list", raw: map[string]any{"cwes": []any{"CWE-79", "cwe-89", "79"}}, exp: []string{"79", "89"}},
		{name: "list in cwe field", raw: map[string]any{"cwe": []any{"CWE-22"}}, exp: []string{"22"}},
		{name: "bandit", raw: map[string]any{"issue_cwe": map[string]any{"id": 78.0, "link": "https://cwe.mitre.org"}}, exp: []string{"78"}},
		{
			name: "semgrep",
			raw: map[string]any{"extra": map[string]any{"metadata": map[string]any{
				"cwe": []any{"CWE-89: Improper Neutralization of Special Elements used in an SQL Command"},
			}}},
			exp: []string{"89"},
		},
		{name: "garbage", raw: map[string]any{"cwe": "none", "issue_cwe": "x"}, exp: nil},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			f := &finding.Finding{Raw: d.raw}
			if diff := cmp.Diff(d.exp, f.CWEs()); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestFinding_CVEs(t *testing.T) {
	t.Parallel()
	data := []struct {
		name string
		raw  map[string]any
		exp  []string
	}{
		{name: "nil raw", raw: nil, exp: nil},
		{name: "trivy", raw: map[string]any{"VulnerabilityID": "CVE-2021-44228"}, exp: []string{"CVE-2021-44228"}},
		{name: "lower case", raw: map[string]any{"cve": "cve-2022-0001"}, exp: []string{"CVE-2022-0001"}},
		{
			name: "aliases",
			raw:  map[string]any{"aliases": []any{"GHSA-xxxx-yyyy", "CVE-2023-1234"}, "cve_id": "CVE-2023-1234"},
			exp:  []string{"CVE-2023-1234"},
		},
		{name: "not a cve", raw: map[string]any{"cve": "GHSA-1"}, exp: nil},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			f := &finding.Finding{Raw: d.raw}
			if diff := cmp.Diff(d.exp, f.CVEs()); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
