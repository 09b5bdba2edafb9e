package diff

import (
	"maps"
	"slices"

	"github.com/scanmesh/scanmesh/pkg/finding"
)

// detectChanges compares the tracked fields of the same finding in both scans.
// Each change type is detected independently.
func detectChanges(baseline, current *finding.Finding) map[ChangeType]Change {
	changes := map[ChangeType]Change{}

	if oldSev, newSev := baseline.Severity.Normalize(), current.Severity.Normalize(); oldSev != newSev {
		changes[ChangeSeverity] = Change{Old: oldSev.String(), New: newSev.String()}
	}

	if baseline.Priority != nil && current.Priority != nil && *baseline.Priority != *current.Priority {
		changes[ChangePriority] = Change{Old: *baseline.Priority, New: *current.Priority}
	}

	if oldCWE, newCWE := baseline.FirstCWE(), current.FirstCWE(); oldCWE != newCWE {
		changes[ChangeCWE] = Change{Old: nullable(oldCWE), New: nullable(newCWE)}
	}

	if baseline.Message != current.Message {
		changes[ChangeMessage] = Change{Old: baseline.Message, New: current.Message}
	}

	if added := addedCompliance(baseline.Compliance, current.Compliance); len(added) > 0 {
		changes[ChangeComplianceAdded] = Change{Added: added}
	}
	return changes
}

// addedCompliance returns the sorted framework:id tokens present only in current.
func addedCompliance(baseline, current finding.Compliance) []string {
	if len(current) == 0 {
		return nil
	}
	old := make(map[string]struct{}, len(baseline))
	for _, token := range baseline.Tokens() {
		old[token] = struct{}{}
	}
	var added []string
	for _, token := range current.Tokens() {
		if _, ok := old[token]; !ok {
			added = append(added, token)
		}
	}
	return added
}

// riskDelta grades a modification by severity first and by priority when severity is unchanged.
func riskDelta(baseline, current *finding.Finding) RiskDelta {
	switch oldRank, newRank := baseline.Severity.Rank(), current.Severity.Rank(); {
	case newRank > oldRank:
		return RiskWorsened
	case newRank < oldRank:
		return RiskImproved
	}
	if baseline.Priority != nil && current.Priority != nil {
		switch {
		case *current.Priority > *baseline.Priority:
			return RiskWorsened
		case *current.Priority < *baseline.Priority:
			return RiskImproved
		}
	}
	return RiskUnchanged
}

func changeTypes(changes map[ChangeType]Change) []ChangeType {
	return slices.Sorted(maps.Keys(changes))
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
