package finding

import "strings"

// Severity is the ordered severity of a finding: CRITICAL > HIGH > MEDIUM > LOW > INFO.
// Values outside the enum rank as INFO.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Rank returns an integer rank for comparison (INFO=0, CRITICAL=4).
func (s Severity) Rank() int {
	switch ParseSeverity(string(s)) {
	case SeverityCritical:
		return 4 //nolint:mnd
	case SeverityHigh:
		return 3 //nolint:mnd
	case SeverityMedium:
		return 2 //nolint:mnd
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// Normalize returns the canonical upper case form, or INFO for unknown values.
func (s Severity) Normalize() Severity {
	return ParseSeverity(string(s))
}

// ParseSeverity parses a severity string case-insensitively.
// Scanner specific aliases are mapped onto the enum and anything else becomes INFO.
func ParseSeverity(s string) Severity {
	sev, _ := LookupSeverity(s)
	return sev
}

// LookupSeverity is like ParseSeverity but reports whether s is a known severity or alias.
func LookupSeverity(s string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return SeverityCritical, true
	case "HIGH", "ERROR":
		return SeverityHigh, true
	case "MEDIUM", "MODERATE", "WARNING":
		return SeverityMedium, true
	case "LOW":
		return SeverityLow, true
	case "INFO", "INFORMATIONAL", "NOTE":
		return SeverityInfo, true
	default:
		return SeverityInfo, false
	}
}

// CompareSeverity returns a negative number if a ranks below b, zero if equal, and positive otherwise.
func CompareSeverity(a, b Severity) int {
	return a.Rank() - b.Rank()
}

// MaxSeverity returns the highest severity in the list. It returns INFO for an empty list.
func MaxSeverity(severities ...Severity) Severity {
	best := SeverityInfo
	for _, s := range severities {
		if CompareSeverity(s, best) > 0 {
			best = s.Normalize()
		}
	}
	return best
}

// AllSeverities returns every severity from CRITICAL to INFO.
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInfo,
	}
}
