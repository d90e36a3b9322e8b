package store

import (
	"hash/fnv"

	"github.com/spigell/collab-matcher/internal/projects"
)

const (
	minHashScore = 70
	hashSpan     = 30
)

// Scorer assigns the compatibility score shown for a project to a viewer.
type Scorer func(viewerID string, p *projects.Project) int

// HashScorer keeps a stored score, clamped to 0-100, and otherwise derives a
// stable 70-99 value from the viewer and project ids.
func HashScorer(viewerID string, p *projects.Project) int {
	if p.StoredScore != nil {
		return max(0, min(*p.StoredScore, 100))
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(viewerID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(p.ID))
	return minHashScore + int(h.Sum32()%hashSpan)
}

// WithScores returns copies of items with CompatibilityScore set by scorer.
func WithScores(viewerID string, items *projects.Projects, scorer Scorer) *projects.Projects {
	if scorer == nil {
		scorer = HashScorer
	}

	scored := items.Clone()
	for _, p := range scored.Items {
		p.CompatibilityScore = scorer(viewerID, p)
	}
	return scored
}
