package similarity

import (
	"strings"

	"github.com/scanmesh/scanmesh/pkg/finding"
)

// Lines further apart than this never match.
const maxLineGap = 10

// LocationSimilarity compares the files and line ranges of a and b.
// Different files, or a missing start line on either side, score 0.
// Overlapping line ranges score their Jaccard overlap; disjoint ranges score
// 1 - gap/10 so that findings a few lines apart still count as close.
func (c *Calculator) LocationSimilarity(a, b *finding.Finding) float64 {
	return locationScore(locationFeatures(a), locationFeatures(b))
}

func locationScore(a, b *Features) float64 {
	if a.path == "" || a.path != b.path {
		return 0
	}
	if a.startLine <= 0 || b.startLine <= 0 {
		return 0
	}
	return lineRangeSimilarity(a.startLine, a.endLine, b.startLine, b.endLine)
}

func lineRangeSimilarity(startA, endA, startB, endB int) float64 {
	lo, hi := max(startA, startB), min(endA, endB)
	if lo <= hi {
		overlap := hi - lo + 1
		union := (endA - startA + 1) + (endB - startB + 1) - overlap
		return float64(overlap) / float64(union)
	}
	gap := lo - hi
	return max(0, 1-float64(gap)/maxLineGap)
}

func normalizePath(p string) string {
	p = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(p), `\`, "/"))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
