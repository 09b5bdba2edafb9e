// Package finding defines the canonical finding record shared by the clustering and diff engines.
// Findings are produced upstream by per-tool normalizers; this package only models, decodes,
// and inspects them.
package finding

import (
	"maps"
	"slices"
)

// Finding is one normalized result reported by a scanner.
type Finding struct {
	// ID is the stable fingerprint of the finding. It is unique within a collection.
	ID         string         `json:"id"`
	Severity   Severity       `json:"severity"`
	RuleID     string         `json:"ruleId"`
	Message    string         `json:"message"`
	Location   Location       `json:"location"`
	Tool       Tool           `json:"tool"`
	Raw        map[string]any `json:"raw,omitempty"`
	Tags       Tags           `json:"tags,omitempty"`
	Compliance Compliance     `json:"compliance,omitempty"`
	Priority   *float64       `json:"priority,omitempty"`

	// The fields below are only set on consensus findings built from a cluster.
	DetectedBy []Tool      `json:"detected_by,omitempty"`
	Confidence *Confidence `json:"confidence,omitempty"`
	Context    *Context    `json:"context,omitempty"`
}

// Location is the place in the scanned target a finding points at.
type Location struct {
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	// EndLine is 0 when the tool reports a single line.
	EndLine int `json:"endLine,omitempty"`
}

// Tool identifies the scanner that produced a finding.
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ConfidenceLevel grades how many tools agree on a consensus finding.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// Confidence tells how many tools agree on a consensus finding.
type Confidence struct {
	Level         ConfidenceLevel `json:"level"`
	ToolCount     int             `json:"tool_count"`
	AvgSimilarity float64         `json:"avg_similarity"`
}

// Context lists the findings a consensus finding was merged from.
type Context struct {
	Duplicates []Duplicate `json:"duplicates"`
}

// Duplicate describes a cluster member that was folded into a consensus finding.
type Duplicate struct {
	ID              string   `json:"id"`
	Tool            Tool     `json:"tool"`
	Severity        Severity `json:"severity"`
	Message         string   `json:"message"`
	SimilarityScore float64  `json:"similarity_score"`
}

// Clone returns a copy of the finding that shares no slices or top level maps with f.
// Nested values inside Raw are shared.
func (f *Finding) Clone() Finding {
	c := *f
	c.Raw = maps.Clone(f.Raw)
	c.Tags = slices.Clone(f.Tags)
	if f.Compliance != nil {
		c.Compliance = make(Compliance, len(f.Compliance))
		for k, v := range f.Compliance {
			c.Compliance[k] = slices.Clone(v)
		}
	}
	if f.Priority != nil {
		p := *f.Priority
		c.Priority = &p
	}
	c.DetectedBy = slices.Clone(f.DetectedBy)
	if f.Confidence != nil {
		cf := *f.Confidence
		c.Confidence = &cf
	}
	if f.Context != nil {
		c.Context = &Context{Duplicates: slices.Clone(f.Context.Duplicates)}
	}
	return c
}

// HasTag reports whether the finding carries the tag, ignoring case.
func (f *Finding) HasTag(tag string) bool {
	return f.Tags.Has(tag)
}

// EffectiveEndLine returns the inclusive end of the line range.
// An end line before the start line collapses the range to the start line.
func (l Location) EffectiveEndLine() int {
	if l.EndLine < l.StartLine {
		return l.StartLine
	}
	return l.EndLine
}
