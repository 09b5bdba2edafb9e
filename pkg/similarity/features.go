package similarity

import (
	"strings"

	"github.com/scanmesh/scanmesh/pkg/finding"
)

// Features are the normalized parts of a finding the scores are computed from.
// Build them once per finding with NewFeatures and compare them with Calculator.Compare.
type Features struct {
	path           string
	startLine      int
	endLine        int
	message        string
	tokens         map[string]struct{}
	keywords       map[string]struct{}
	metadataTokens map[string]struct{}
	cwes           []string
	cves           []string
	ruleParts      []string
	vulnClass      bool
}

// NewFeatures extracts the features of f.
func NewFeatures(f *finding.Finding) *Features {
	fe := locationFeatures(f)
	fe.message = normalizeMessage(f.Message)
	fe.tokens = toSet(strings.Fields(fe.message)...)
	fe.keywords = keywords(fe.tokens)
	fe.metadataTokens = metadataTokens(f.Message)
	fe.cwes = f.CWEs()
	fe.cves = f.CVEs()
	fe.ruleParts = splitRuleID(f.RuleID)
	fe.vulnClass = isVulnerabilityClass(f)
	return fe
}

func locationFeatures(f *finding.Finding) *Features {
	return &Features{
		path:      normalizePath(f.Location.Path),
		startLine: f.Location.StartLine,
		endLine:   f.Location.EffectiveEndLine(),
	}
}
