package di

import (
	"github.com/scanmesh/scanmesh/pkg/cli/flag"
)

// DedupFlags holds the command-line flags of the dedup command.
type DedupFlags struct {
	*flag.GlobalFlags

	// Threshold is used only if ThresholdSet is true. Otherwise the configuration file decides.
	Threshold    float64
	ThresholdSet bool
	Output       string
	Args         []string
}

// DiffFlags holds the command-line flags of the diff command.
type DiffFlags struct {
	*flag.GlobalFlags

	HistoryDB       string
	ScanIDs         []string
	NoModifications bool
	Severities      []string
	Tools           []string
	Only            []string
	Output          string
	Args            []string
}

// HistoryFlags holds the command-line flags of the history command.
type HistoryFlags struct {
	*flag.GlobalFlags

	HistoryDB string
	Limit     int
	Output    string
}
