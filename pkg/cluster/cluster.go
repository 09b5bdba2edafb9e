// Package cluster groups findings reported by different tools for the same issue
// and folds each group into one consensus finding.
package cluster

import "github.com/scanmesh/scanmesh/pkg/finding"

const (
	highConfidenceMembers   = 4
	mediumConfidenceMembers = 2
)

// Cluster is a group of findings believed to describe the same issue.
// Its state changes only through Add.
type Cluster struct {
	members []finding.Finding
	// scores[i] is the similarity of members[i] to the representative at admission time.
	scores         []float64
	representative int
}

// NewCluster starts a cluster with f as its only member and representative.
func NewCluster(f finding.Finding) *Cluster {
	return &Cluster{
		members: []finding.Finding{f},
		scores:  []float64{1},
	}
}

// Add appends f to the cluster with the similarity score it was admitted with.
// f becomes the representative if its severity is strictly higher than the current one.
func (c *Cluster) Add(f finding.Finding, score float64) {
	c.members = append(c.members, f)
	c.scores = append(c.scores, score)
	if f.Severity.Rank() > c.members[c.representative].Severity.Rank() {
		c.representative = len(c.members) - 1
	}
}

// Representative returns the member new findings are compared against.
func (c *Cluster) Representative() *finding.Finding {
	return &c.members[c.representative]
}

// Members returns the findings of the cluster in admission order.
func (c *Cluster) Members() []finding.Finding {
	members := make([]finding.Finding, len(c.members))
	copy(members, c.members)
	return members
}

// Len returns the number of members.
func (c *Cluster) Len() int {
	return len(c.members)
}

// SimilarityScores maps each member id to its admission score.
func (c *Cluster) SimilarityScores() map[string]float64 {
	scores := make(map[string]float64, len(c.members))
	for i := range c.members {
		if _, ok := scores[c.members[i].ID]; ok {
			continue
		}
		scores[c.members[i].ID] = c.scores[i]
	}
	return scores
}

// Consensus builds the finding that stands for the whole cluster.
// Its average similarity is the mean of the admission scores, the founder counting as 1.
// It doesn't modify the cluster, so calling it twice gives the same result.
func (c *Cluster) Consensus() finding.Finding {
	rep := c.members[c.representative]
	consensus := rep.Clone()
	consensus.ID = "cluster-" + rep.ID

	detectedBy := make([]finding.Tool, 0, len(c.members))
	severities := make([]finding.Severity, 0, len(c.members))
	duplicates := make([]finding.Duplicate, 0, len(c.members)-1)
	total := 0.0
	for i, m := range c.members {
		detectedBy = append(detectedBy, m.Tool)
		severities = append(severities, m.Severity)
		total += c.scores[i]
		if i == c.representative {
			continue
		}
		duplicates = append(duplicates, finding.Duplicate{
			ID:              m.ID,
			Tool:            m.Tool,
			Severity:        m.Severity,
			Message:         m.Message,
			SimilarityScore: c.scores[i],
		})
	}

	consensus.Severity = finding.MaxSeverity(severities...)
	consensus.DetectedBy = detectedBy
	consensus.Confidence = &finding.Confidence{
		Level:         confidenceLevel(len(c.members)),
		ToolCount:     len(c.members),
		AvgSimilarity: total / float64(len(c.members)),
	}
	consensus.Context = &finding.Context{Duplicates: duplicates}
	return consensus
}

func confidenceLevel(members int) finding.ConfidenceLevel {
	switch {
	case members >= highConfidenceMembers:
		return finding.ConfidenceHigh
	case members >= mediumConfidenceMembers:
		return finding.ConfidenceMedium
	default:
		return finding.ConfidenceLow
	}
}
