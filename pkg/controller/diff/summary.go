package diff

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/scanmesh/scanmesh/pkg/diff"
	"github.com/scanmesh/scanmesh/pkg/finding"
)

type colorFunc func(a ...any) string

// Summary prints a human readable overview of a diff result.
type Summary struct {
	stderr io.Writer
	red    colorFunc
	green  colorFunc
	yellow colorFunc
}

// NewSummary creates a Summary printing to stderr. A nil stderr disables it.
func NewSummary(stderr io.Writer) *Summary {
	return &Summary{
		red:    color.New(color.FgRed).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		stderr: stderr,
	}
}

// Print writes the counts of each category followed by one line per new, resolved, and modified finding.
func (s *Summary) Print(result *diff.Result) {
	if s.stderr == nil {
		return
	}
	st := result.Statistics()
	fmt.Fprintf(s.stderr, "%s %d  %s %d  %s %d  unchanged %d\n",
		s.red("new"), st.TotalNew,
		s.green("resolved"), st.TotalResolved,
		s.yellow("modified"), st.TotalModified,
		st.TotalUnchanged)
	fmt.Fprintf(s.stderr, "net change %+d (%s)\n", st.NetChange, s.trend(st.Trend))
	for _, f := range result.New {
		fmt.Fprintf(s.stderr, "%s %s\n", s.red("+ "+string(f.Severity.Normalize())), describe(&f))
	}
	for _, f := range result.Resolved {
		fmt.Fprintf(s.stderr, "%s %s\n", s.green("- "+string(f.Severity.Normalize())), describe(&f))
	}
	for _, m := range result.Modified {
		fmt.Fprintf(s.stderr, "%s %s (%s)\n", s.yellow("~ "+string(m.Current.Severity.Normalize())), describe(&m.Current), m.RiskDelta)
	}
}

func (s *Summary) trend(t diff.Trend) string {
	switch t {
	case diff.TrendWorsening:
		return s.red(string(t))
	case diff.TrendImproving:
		return s.green(string(t))
	default:
		return string(t)
	}
}

func describe(f *finding.Finding) string {
	loc := f.Location.Path
	if f.Location.StartLine > 0 {
		loc = fmt.Sprintf("%s:%d", loc, f.Location.StartLine)
	}
	return fmt.Sprintf("%s %s %s", f.ID, loc, f.Message)
}
