package similarity

import (
	"strings"

	"github.com/scanmesh/scanmesh/pkg/finding"
)

const (
	minSharedRuleComponents = 2
	minRulePrefixRatio      = 0.5
	ruleFamilyBase          = 0.70
	ruleFamilyScale         = 0.20
)

// MetadataSimilarity compares CWE ids, CVE ids, and rule ids, in that order.
// A shared CWE or CVE scores 1. Rule ids of the same family, like
// "python.django.security.injection.sql" and "python.django.security.injection.raw-query",
// score between 0.70 and 0.90 depending on how much of the id they share.
func (c *Calculator) MetadataSimilarity(a, b *finding.Finding) float64 {
	return metadataScore(NewFeatures(a), NewFeatures(b))
}

func metadataScore(a, b *Features) float64 {
	if intersects(a.cwes, b.cwes) {
		return 1
	}
	if intersects(a.cves, b.cves) {
		return 1
	}
	return ruleFamilySimilarity(a.ruleParts, b.ruleParts)
}

func ruleFamilySimilarity(partsA, partsB []string) float64 {
	if len(partsA) == 0 || len(partsB) == 0 {
		return 0
	}
	shared := 0
	for shared < len(partsA) && shared < len(partsB) && partsA[shared] == partsB[shared] {
		shared++
	}
	ratio := float64(shared) / float64(max(len(partsA), len(partsB)))
	if shared < minSharedRuleComponents || ratio < minRulePrefixRatio {
		return 0
	}
	return ruleFamilyBase + ruleFamilyScale*ratio
}

func splitRuleID(ruleID string) []string {
	return strings.FieldsFunc(strings.ToLower(strings.TrimSpace(ruleID)), func(r rune) bool {
		return r == '.' || r == '-'
	})
}
