package diff

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/scanmesh/scanmesh/pkg/finding"
)

type ChangeType string

const (
	ChangeSeverity        ChangeType = "severity"
	ChangePriority        ChangeType = "priority"
	ChangeCWE             ChangeType = "cwe"
	ChangeMessage         ChangeType = "message"
	ChangeComplianceAdded ChangeType = "compliance_added"
)

// Change is one detected difference of a finding present in both scans.
// It is encoded as an [old, new] pair, or as the list of added values when Added is set.
type Change struct {
	Old   any
	New   any
	Added []string
}

// MarshalJSON encodes the change as the list of added values, or as an [old, new] pair.
func (c Change) MarshalJSON() ([]byte, error) {
	if c.Added != nil {
		return json.Marshal(c.Added) //nolint:wrapcheck
	}
	return json.Marshal([2]any{c.Old, c.New}) //nolint:wrapcheck
}

type RiskDelta string

const (
	RiskWorsened  RiskDelta = "worsened"
	RiskImproved  RiskDelta = "improved"
	RiskUnchanged RiskDelta = "unchanged"
)

// ModifiedFinding is a finding present in both scans whose tracked fields differ.
type ModifiedFinding struct {
	Fingerprint string                `json:"fingerprint"`
	Changes     map[ChangeType]Change `json:"changes"`
	Baseline    finding.Finding       `json:"baseline"`
	Current     finding.Finding       `json:"current"`
	RiskDelta   RiskDelta             `json:"risk_delta"`
}

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendWorsening Trend = "worsening"
	TrendStable    Trend = "stable"
)

// Statistics summarizes a Result.
type Statistics struct {
	TotalNew            int                `json:"total_new"`
	TotalResolved       int                `json:"total_resolved"`
	TotalUnchanged      int                `json:"total_unchanged"`
	TotalModified       int                `json:"total_modified"`
	NetChange           int                `json:"net_change"`
	Trend               Trend              `json:"trend"`
	NewBySeverity       map[string]int     `json:"new_by_severity"`
	ResolvedBySeverity  map[string]int     `json:"resolved_by_severity"`
	ModificationsByType map[ChangeType]int `json:"modifications_by_type"`
}

// Result is the outcome of comparing a baseline scan with a current scan.
type Result struct {
	New            []finding.Finding `json:"new"`
	Resolved       []finding.Finding `json:"resolved"`
	Unchanged      []finding.Finding `json:"unchanged"`
	Modified       []ModifiedFinding `json:"modified"`
	BaselineSource *Source           `json:"baseline_source"`
	CurrentSource  *Source           `json:"current_source"`
}

// Statistics computes the summary of the four lists. It is never cached.
func (r *Result) Statistics() Statistics {
	st := Statistics{
		TotalNew:            len(r.New),
		TotalResolved:       len(r.Resolved),
		TotalUnchanged:      len(r.Unchanged),
		TotalModified:       len(r.Modified),
		NetChange:           len(r.New) - len(r.Resolved),
		NewBySeverity:       countBySeverity(r.New),
		ResolvedBySeverity:  countBySeverity(r.Resolved),
		ModificationsByType: map[ChangeType]int{},
	}
	switch {
	case st.NetChange < 0:
		st.Trend = TrendImproving
	case st.NetChange > 0:
		st.Trend = TrendWorsening
	default:
		st.Trend = TrendStable
	}
	for _, m := range r.Modified {
		for ct := range m.Changes {
			st.ModificationsByType[ct]++
		}
	}
	return st
}

func countBySeverity(findings []finding.Finding) map[string]int {
	counts := make(map[string]int, len(finding.AllSeverities()))
	for _, s := range finding.AllSeverities() {
		counts[s.String()] = 0
	}
	for _, f := range findings {
		counts[f.Severity.Normalize().String()]++
	}
	return counts
}

// MarshalJSON encodes the result with freshly computed statistics.
// Empty lists are encoded as [] rather than null.
func (r *Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct { //nolint:wrapcheck
		*alias

		New        []finding.Finding `json:"new"`
		Resolved   []finding.Finding `json:"resolved"`
		Unchanged  []finding.Finding `json:"unchanged"`
		Modified   []ModifiedFinding `json:"modified"`
		Statistics Statistics        `json:"statistics"`
	}{
		alias:      (*alias)(r),
		New:        nonNil(r.New),
		Resolved:   nonNil(r.Resolved),
		Unchanged:  nonNil(r.Unchanged),
		Modified:   nonNil(r.Modified),
		Statistics: r.Statistics(),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Category is one of the four lists of a Result.
type Category string

const (
	CategoryNew       Category = "new"
	CategoryResolved  Category = "resolved"
	CategoryUnchanged Category = "unchanged"
	CategoryModified  Category = "modified"
)

// Categories returns every category in output order.
func Categories() []Category {
	return []Category{CategoryNew, CategoryResolved, CategoryUnchanged, CategoryModified}
}

// FilterOptions selects findings of a Result. Empty fields match everything.
type FilterOptions struct {
	Severities []finding.Severity
	// Tools are matched against the tool name and the tools a consensus finding was detected by, ignoring case.
	Tools      []string
	Categories []Category
}

// Filter returns a new Result holding only the findings matching opts.
// Modified findings are matched on their current version. r isn't modified.
func (r *Result) Filter(opts FilterOptions) *Result {
	filtered := &Result{
		BaselineSource: r.BaselineSource,
		CurrentSource:  r.CurrentSource,
	}
	if opts.includes(CategoryNew) {
		filtered.New = filterFindings(r.New, opts)
	}
	if opts.includes(CategoryResolved) {
		filtered.Resolved = filterFindings(r.Resolved, opts)
	}
	if opts.includes(CategoryUnchanged) {
		filtered.Unchanged = filterFindings(r.Unchanged, opts)
	}
	if opts.includes(CategoryModified) {
		for _, m := range r.Modified {
			if opts.match(&m.Current) {
				filtered.Modified = append(filtered.Modified, m)
			}
		}
	}
	return filtered
}

func filterFindings(findings []finding.Finding, opts FilterOptions) []finding.Finding {
	var matched []finding.Finding
	for i := range findings {
		if opts.match(&findings[i]) {
			matched = append(matched, findings[i])
		}
	}
	return matched
}

func (o *FilterOptions) includes(c Category) bool {
	return len(o.Categories) == 0 || slices.Contains(o.Categories, c)
}

func (o *FilterOptions) match(f *finding.Finding) bool {
	if len(o.Severities) > 0 && !slices.ContainsFunc(o.Severities, func(s finding.Severity) bool {
		return s.Normalize() == f.Severity.Normalize()
	}) {
		return false
	}
	if len(o.Tools) == 0 {
		return true
	}
	return slices.ContainsFunc(o.Tools, func(name string) bool {
		if strings.EqualFold(name, f.Tool.Name) {
			return true
		}
		return slices.ContainsFunc(f.DetectedBy, func(t finding.Tool) bool {
			return strings.EqualFold(name, t.Name)
		})
	})
}
