package finding

import (
	"regexp"
	"strconv"
	"strings"
)

// A strategy knows one shape tools use to carry CWE or CVE ids in their raw output.
// Strategies are tried in order and their results are merged; a raw map matching none
// of them simply has no metadata.
type strategy struct {
	name    string
	extract func(raw map[string]any) []any
}

var cweStrategies = []strategy{ //nolint:gochecknoglobals
	{
		// {"cwe": "CWE-89"} or {"cwe": 89}
		name: "field",
		extract: func(raw map[string]any) []any {
			if _, ok := raw["cwe"].([]any); ok {
				return nil
			}
			return []any{raw["cwe"]}
		},
	},
	{
		// {"cwe": ["CWE-89"]}, {"cwes": [...]}, {"cwe_ids": [...]}
		name: "list",
		extract: func(raw map[string]any) []any {
			var values []any
			for _, key := range []string{"cwe", "cwes", "cwe_ids"} {
				if l, ok := raw[key].([]any); ok {
					values = append(values, l...)
				}
			}
			return values
		},
	},
	{
		// bandit: {"issue_cwe": {"id": 89, "link": "..."}}
		name: "bandit",
		extract: func(raw map[string]any) []any {
			return []any{lookup(raw, "issue_cwe", "id")}
		},
	},
	{
		// semgrep: {"extra": {"metadata": {"cwe": ["CWE-89: Improper Neutralization ..."]}}}
		name: "semgrep",
		extract: func(raw map[string]any) []any {
			switch v := lookup(raw, "extra", "metadata", "cwe").(type) {
			case []any:
				return v
			default:
				return []any{v}
			}
		},
	},
}

var cveStrategies = []strategy{ //nolint:gochecknoglobals
	{
		name: "field",
		extract: func(raw map[string]any) []any {
			values := []any{}
			for _, key := range []string{"cve", "cve_id", "cveId", "VulnerabilityID", "vulnerability_id"} {
				values = append(values, raw[key])
			}
			return values
		},
	},
	{
		name: "list",
		extract: func(raw map[string]any) []any {
			var values []any
			for _, key := range []string{"cves", "aliases"} {
				if l, ok := raw[key].([]any); ok {
					values = append(values, l...)
				}
			}
			return values
		},
	},
}

var (
	cwePattern = regexp.MustCompile(`(?i)^\s*(?:cwe[-_ ]?)?(\d+)`)
	cvePattern = regexp.MustCompile(`(?i)^\s*(CVE-\d{4}-\d+)\s*$`)
)

// CWEs returns the CWE ids found in the raw tool output as bare numeric strings, in first-seen order.
func (f *Finding) CWEs() []string {
	return extract(f.Raw, cweStrategies, normalizeCWE)
}

// CVEs returns the upper cased CVE ids found in the raw tool output, in first-seen order.
func (f *Finding) CVEs() []string {
	return extract(f.Raw, cveStrategies, normalizeCVE)
}

// FirstCWE returns the first extracted CWE id, or an empty string.
func (f *Finding) FirstCWE() string {
	if cwes := f.CWEs(); len(cwes) > 0 {
		return cwes[0]
	}
	return ""
}

func extract(raw map[string]any, strategies []strategy, normalize func(any) string) []string {
	if len(raw) == 0 {
		return nil
	}
	var ids []string
	seen := map[string]struct{}{}
	for _, s := range strategies {
		for _, v := range s.extract(raw) {
			id := normalize(v)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func normalizeCWE(v any) string {
	switch tv := v.(type) {
	case float64:
		if tv < 1 {
			return ""
		}
		return strconv.Itoa(int(tv))
	case string:
		m := cwePattern.FindStringSubmatch(tv)
		if m == nil {
			return ""
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return ""
		}
		return strconv.Itoa(n)
	}
	return ""
}

func normalizeCVE(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	m := cvePattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func lookup(m map[string]any, keys ...string) any {
	var cur any = m
	for _, key := range keys {
		cm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = cm[key]
	}
	return cur
}
