package store

import (
	"testing"
	"time"

	"github.com/spigell/collab-matcher/internal/projects"
)

func TestHashScorer(t *testing.T) {
	p := &projects.Project{ID: "p1"}

	first := HashScorer("viewer", p)
	if first < 70 || first > 99 {
		t.Fatalf("score out of range: %d", first)
	}
	if again := HashScorer("viewer", p); again != first {
		t.Fatalf("expected stable score, got %d and %d", first, again)
	}

	for _, tt := range []struct{ stored, want int }{{42, 42}, {0, 0}, {150, 100}, {-5, 0}} {
		stored := &projects.Project{ID: "p2", StoredScore: &tt.stored}
		if got := HashScorer("viewer", stored); got != tt.want {
			t.Fatalf("stored %d: expected %d, got %d", tt.stored, tt.want, got)
		}
	}

	// A fetch-time score left over on the record is not a stored score.
	stale := &projects.Project{ID: "p1", CompatibilityScore: 5}
	if got := HashScorer("viewer", stale); got != first {
		t.Fatalf("expected derived score %d, got %d", first, got)
	}
}

func TestWithScoresDoesNotMutateInput(t *testing.T) {
	items := &projects.Projects{Items: []*projects.Project{{ID: "a"}, {ID: "b"}}}

	scored := WithScores("viewer", items, func(_ string, p *projects.Project) int {
		if p.ID == "a" {
			return 10
		}
		return 20
	})

	if scored.Items[0].CompatibilityScore != 10 || scored.Items[1].CompatibilityScore != 20 {
		t.Fatalf("unexpected scores: %+v", scored.Items)
	}
	if items.Items[0].CompatibilityScore != 0 {
		t.Fatal("input must not be modified")
	}
}

func TestDecodeDocument(t *testing.T) {
	var p projects.Project
	err := decodeDocument(map[string]any{
		"title":            "Doc",
		"missingRoles":     []any{"Backend Dev"},
		"teamSize":         float64(2),
		"createdTimestamp": float64(1700000000000),
		"owner":            map[string]any{"name": "Ada"},
		"storedScore":      float64(0),
	}, &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "Doc" || p.TeamSize != 2 || p.CreatedTimestamp != 1700000000000 || p.Owner.Name != "Ada" {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.StoredScore == nil || *p.StoredScore != 0 {
		t.Fatalf("expected a stored zero score, got %v", p.StoredScore)
	}

	var m projects.Meetup
	err = decodeDocument(map[string]any{
		"projectId":    "p",
		"proposedTime": "2025-03-01T10:00:00Z",
		"createdAt":    "",
	}, &m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.ProposedTime.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) || !m.CreatedAt.IsZero() {
		t.Fatalf("unexpected meetup times: %+v", m)
	}
}
