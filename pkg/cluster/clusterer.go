package cluster

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/scanmesh/scanmesh/pkg/similarity"
	"github.com/sirupsen/logrus"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// DefaultThreshold is the minimum similarity for a finding to join a cluster.
const DefaultThreshold = 0.75

const progressInterval = 10

// ProgressFunc is notified while findings are being clustered.
type ProgressFunc func(processed, total int, message string)

// Clusterer greedily assigns findings to clusters.
type Clusterer struct {
	calc      *similarity.Calculator
	threshold float64
}

// New creates a Clusterer. threshold must be in [0, 1].
func New(calc *similarity.Calculator, threshold float64) (*Clusterer, error) {
	if threshold < 0 || threshold > 1 {
		return nil, logerr.WithFields(fmt.Errorf("similarity threshold must be between 0 and 1: %w", apperr.ErrInvalidInput), logrus.Fields{ //nolint:wrapcheck
			"similarity_threshold": threshold,
		})
	}
	if calc == nil {
		calc = similarity.NewDefault()
	}
	return &Clusterer{calc: calc, threshold: threshold}, nil
}

// Threshold returns the minimum similarity for a finding to join a cluster.
func (c *Clusterer) Threshold() float64 {
	return c.threshold
}

// Cluster partitions findings into clusters. Every input finding ends up in exactly one cluster.
//
// Findings are visited from the most to the least severe, so clusters tend to be founded by
// their most severe member. Each finding is compared against the current representative of
// every existing cluster and joins the best match if it reaches the threshold. Ties keep the
// earliest cluster. progress may be nil.
func (c *Clusterer) Cluster(findings []finding.Finding, progress ProgressFunc) []*Cluster {
	sorted := slices.Clone(findings)
	slices.SortStableFunc(sorted, func(a, b finding.Finding) int {
		return cmp.Compare(b.Severity.Rank(), a.Severity.Rank())
	})

	var clusters []*Cluster
	// reps[i] holds the features of the representative of clusters[i].
	var reps []*similarity.Features
	total := len(sorted)
	for i, f := range sorted {
		features := similarity.NewFeatures(&f)
		if best, score := c.bestMatch(reps, features); best >= 0 {
			cl := clusters[best]
			cl.Add(f, score)
			if cl.representative == cl.Len()-1 {
				reps[best] = features
			}
		} else {
			clusters = append(clusters, NewCluster(f))
			reps = append(reps, features)
		}
		if processed := i + 1; progress != nil && processed%progressInterval == 0 {
			progress(processed, total, fmt.Sprintf("clustered %d of %d findings into %d clusters", processed, total, len(clusters)))
		}
	}
	return clusters
}

// bestMatch returns the index of the first representative with the highest score reaching
// the threshold, or -1.
func (c *Clusterer) bestMatch(reps []*similarity.Features, f *similarity.Features) (int, float64) {
	best, bestScore := -1, 0.0
	for i, rep := range reps {
		// A representative that can't reach the threshold, or beat the best so far, is skipped
		// before its message is compared.
		floor := c.threshold
		if best >= 0 {
			floor = max(floor, bestScore)
		}
		score, ok := c.calc.CompareAtLeast(f, rep, floor)
		if !ok || (best >= 0 && score <= bestScore) {
			continue
		}
		best, bestScore = i, score
	}
	return best, bestScore
}

// Deduplicate clusters findings and returns one consensus finding per cluster.
func (c *Clusterer) Deduplicate(findings []finding.Finding, progress ProgressFunc) []finding.Finding {
	return Consensus(c.Cluster(findings, progress))
}

// Consensus returns the consensus finding of each cluster, in cluster order.
func Consensus(clusters []*Cluster) []finding.Finding {
	findings := make([]finding.Finding, len(clusters))
	for i, cl := range clusters {
		findings[i] = cl.Consensus()
	}
	return findings
}
