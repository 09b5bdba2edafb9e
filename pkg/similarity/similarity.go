// Package similarity scores how likely two findings describe the same underlying issue.
// The score is a weighted sum of location, message, and metadata sub-scores in [0, 1],
// halved when the two findings are of incompatible kinds.
// Every method is a pure function of its inputs and never fails on malformed findings:
// missing fields simply contribute 0.
package similarity

import (
	"fmt"
	"math"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/sirupsen/logrus"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// Weights of the three sub-scores. They must be non-negative and sum to 1.
type Weights struct {
	Location float64 `json:"location" yaml:"location"`
	Message  float64 `json:"message" yaml:"message"`
	Metadata float64 `json:"metadata" yaml:"metadata"`
}

const weightTolerance = 0.01

// DefaultWeights returns the default weights: location 0.35, message 0.40, metadata 0.25.
func DefaultWeights() Weights {
	return Weights{
		Location: 0.35, //nolint:mnd
		Message:  0.40, //nolint:mnd
		Metadata: 0.25, //nolint:mnd
	}
}

// Validate returns apperr.ErrInvalidInput if the weights can't be used.
func (w Weights) Validate() error {
	fields := logrus.Fields{
		"location_weight": w.Location,
		"message_weight":  w.Message,
		"metadata_weight": w.Metadata,
	}
	if w.Location < 0 || w.Message < 0 || w.Metadata < 0 {
		return logerr.WithFields(fmt.Errorf("weights must not be negative: %w", apperr.ErrInvalidInput), fields) //nolint:wrapcheck
	}
	if sum := w.Location + w.Message + w.Metadata; math.Abs(sum-1) > weightTolerance {
		return logerr.WithFields(fmt.Errorf("weights must sum to 1.0, got %.3f: %w", sum, apperr.ErrInvalidInput), fields) //nolint:wrapcheck
	}
	return nil
}

// Calculator computes the similarity of two findings.
type Calculator struct {
	weights Weights
}

// New creates a Calculator. It fails if the weights are invalid.
func New(weights Weights) (*Calculator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{weights: weights}, nil
}

// NewDefault creates a Calculator with DefaultWeights.
func NewDefault() *Calculator {
	return &Calculator{weights: DefaultWeights()}
}

// Weights returns the weights of the sub-scores.
func (c *Calculator) Weights() Weights {
	return c.weights
}

// Similarity returns the overall similarity of a and b in [0, 1].
func (c *Calculator) Similarity(a, b *finding.Finding) float64 {
	return c.Compare(NewFeatures(a), NewFeatures(b))
}

// Compare is Similarity over precomputed features.
func (c *Calculator) Compare(a, b *Features) float64 {
	score, _ := c.CompareAtLeast(a, b, 0)
	return score
}

// CompareAtLeast returns the similarity of a and b and true, or false as soon as the
// similarity is known to be below floor. The message edit distance is computed last,
// only if the other scores leave floor reachable.
func (c *Calculator) CompareAtLeast(a, b *Features, floor float64) (float64, bool) {
	loc, meta, incompat := locationScore(a, b), metadataScore(a, b), incompatible(a, b)
	score := func(msg float64) float64 {
		return c.combine(loc, msg, meta, incompat)
	}
	if score(1) < floor {
		return 0, false
	}
	switch {
	case a.message == "" || b.message == "":
		return atLeast(score(0), floor)
	case a.message == b.message:
		return score(1), true
	}
	overlap, boost := tokenOverlap(a, b), metadataBoost(a, b)
	if score(blendMessage(overlap, 1, boost)) < floor {
		return 0, false
	}
	return atLeast(score(blendMessage(overlap, fuzzyRatio(a.message, b.message), boost)), floor)
}

func (c *Calculator) combine(loc, msg, meta float64, incompat bool) float64 {
	score := c.weights.Location*loc + c.weights.Message*msg + c.weights.Metadata*meta
	if incompat {
		score /= 2
	}
	return clamp(score)
}

func atLeast(score, floor float64) (float64, bool) {
	if score < floor {
		return 0, false
	}
	return score, true
}

// UpperBound returns the largest score a and b can possibly reach given only their locations.
func (c *Calculator) UpperBound(a, b *finding.Finding) float64 {
	return clamp(c.weights.Location*c.LocationSimilarity(a, b) + c.weights.Message + c.weights.Metadata)
}

// Incompatible reports whether a and b are of different kinds so they can't be the same issue:
// both carry CWE ids and none is shared, or exactly one of them is a vulnerability class finding.
func Incompatible(a, b *finding.Finding) bool {
	return incompatible(NewFeatures(a), NewFeatures(b))
}

func incompatible(a, b *Features) bool {
	if len(a.cwes) > 0 && len(b.cwes) > 0 && !intersects(a.cwes, b.cwes) {
		return true
	}
	return a.vulnClass != b.vulnClass
}

var vulnerabilityTags = []string{"cve", "vulnerability", "vuln", "sca"} //nolint:gochecknoglobals

func isVulnerabilityClass(f *finding.Finding) bool {
	for _, tag := range vulnerabilityTags {
		if f.HasTag(tag) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
