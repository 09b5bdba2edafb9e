package finding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Findings files are produced by many normalizers of varying quality.
// Decoding is lenient at the field level: a field with an unexpected shape is
// treated as absent instead of failing the whole file.

// Tags is a set of labels. It decodes from a list of strings or a single string.
type Tags []string

// Has reports whether the tag is present, ignoring case.
func (t Tags) Has(tag string) bool {
	return slices.ContainsFunc(t, func(s string) bool {
		return strings.EqualFold(s, tag)
	})
}

func (t *Tags) UnmarshalJSON(b []byte) error {
	*t = nil
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil //nolint:nilerr
	}
	switch tv := v.(type) {
	case string:
		if tv != "" {
			*t = Tags{tv}
		}
	case []any:
		for _, e := range tv {
			if s, ok := e.(string); ok && s != "" {
				*t = append(*t, s)
			}
		}
	}
	return nil
}

// Compliance maps a framework name to the control ids a finding is associated with.
type Compliance map[string][]string

// Tokens returns sorted "framework:id" tokens.
func (c Compliance) Tokens() []string {
	tokens := []string{}
	for framework, ids := range c {
		for _, id := range ids {
			tokens = append(tokens, framework+":"+id)
		}
	}
	slices.Sort(tokens)
	return slices.Compact(tokens)
}

func (c *Compliance) UnmarshalJSON(b []byte) error {
	*c = nil
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil //nolint:nilerr
	}
	out := make(Compliance, len(m))
	for framework, v := range m {
		var ids []string
		switch tv := v.(type) {
		case []any:
			for _, e := range tv {
				if id := complianceID(e); id != "" {
					ids = append(ids, id)
				}
			}
		default:
			if id := complianceID(tv); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			out[framework] = ids
		}
	}
	if len(out) > 0 {
		*c = out
	}
	return nil
}

func complianceID(v any) string {
	switch tv := v.(type) {
	case string:
		return strings.TrimSpace(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case map[string]any:
		for _, key := range []string{"id", "control", "name"} {
			switch id := tv[key].(type) {
			case string:
				if id != "" {
					return strings.TrimSpace(id)
				}
			case float64:
				return strconv.FormatFloat(id, 'f', -1, 64)
			}
		}
	}
	return ""
}

func (l *Location) UnmarshalJSON(b []byte) error {
	*l = Location{}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil //nolint:nilerr
	}
	l.Path, _ = m["path"].(string)
	l.StartLine = firstInt(m, "startLine", "start_line", "line")
	l.EndLine = firstInt(m, "endLine", "end_line")
	return nil
}

func (t *Tool) UnmarshalJSON(b []byte) error {
	*t = Tool{}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil //nolint:nilerr
	}
	switch tv := v.(type) {
	case string:
		t.Name = tv
	case map[string]any:
		t.Name = toString(tv["name"])
		t.Version = toString(tv["version"])
	}
	return nil
}

// UnmarshalJSON decodes a finding object. Only a value that isn't a JSON object is an error.
func (f *Finding) UnmarshalJSON(b []byte) error {
	if t := bytes.TrimSpace(b); len(t) == 0 || t[0] != '{' {
		return errors.New("a finding must be a JSON object")
	}
	type alias Finding
	aux := struct {
		*alias

		ID       json.RawMessage `json:"id"`
		Severity json.RawMessage `json:"severity"`
		RuleID   json.RawMessage `json:"ruleId"`
		Message  json.RawMessage `json:"message"`
		Raw      json.RawMessage `json:"raw"`
		Priority json.RawMessage `json:"priority"`
	}{
		alias: (*alias)(f),
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return fmt.Errorf("decode a finding: %w", err)
	}
	f.ID = rawString(aux.ID)
	f.Severity = Severity(rawString(aux.Severity))
	f.RuleID = rawString(aux.RuleID)
	f.Message = rawString(aux.Message)
	f.Raw = nil
	if len(aux.Raw) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(aux.Raw, &raw); err == nil {
			f.Raw = raw
		}
	}
	f.Priority = rawPriority(aux.Priority)
	return nil
}

func rawString(b json.RawMessage) string {
	if len(b) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return ""
	}
	return toString(v)
}

func rawPriority(b json.RawMessage) *float64 {
	if len(b) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		v = m["priority"]
	}
	switch tv := v.(type) {
	case float64:
		return &tv
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(tv), 64)
		if err != nil {
			return nil
		}
		return &p
	}
	return nil
}

func toString(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) int {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return toInt(v)
		}
	}
	return 0
}

func toInt(v any) int {
	switch tv := v.(type) {
	case float64:
		if tv < 1 || math.IsNaN(tv) || tv > math.MaxInt32 {
			return 0
		}
		return int(tv)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(tv))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}
