package feed

import (
	"testing"
	"time"

	"github.com/spigell/collab-matcher/internal/projects"
)

func ids(items []*projects.Project) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func assertOrder(t *testing.T, items []*projects.Project, want ...string) {
	t.Helper()
	got := ids(items)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestParseSortMode(t *testing.T) {
	for _, in := range []string{"match", "RECENT", " trending ", ""} {
		if _, err := ParseSortMode(in); err != nil {
			t.Fatalf("ParseSortMode(%q) returned error: %v", in, err)
		}
	}
	if mode, _ := ParseSortMode(""); mode != SortMatch {
		t.Fatalf("expected empty mode to default to match, got %q", mode)
	}
	if _, err := ParseSortMode("popular"); err == nil {
		t.Fatalf("expected unknown mode to fail")
	}
}

func TestSortMatchIsStable(t *testing.T) {
	items := []*projects.Project{
		{ID: "a", CompatibilityScore: 80},
		{ID: "b", CompatibilityScore: 90},
		{ID: "c", CompatibilityScore: 80},
		{ID: "d", CompatibilityScore: 80},
	}

	Sort(items, SortMatch, time.Now())
	assertOrder(t, items, "b", "a", "c", "d")
}

func TestSortRecent(t *testing.T) {
	items := []*projects.Project{
		{ID: "100", CreatedTimestamp: 100},
		{ID: "300", CreatedTimestamp: 300},
		{ID: "200", CreatedTimestamp: 200},
		{ID: "missing"},
	}

	Sort(items, SortRecent, time.Now())
	assertOrder(t, items, "300", "200", "100", "missing")
}

func TestTrendingScoreUsesFixedNow(t *testing.T) {
	p := &projects.Project{CompatibilityScore: 50, CreatedTimestamp: 500}
	if got := TrendingScore(p, 1000); got != 50 {
		t.Fatalf("expected 30 + 20 = 50, got %v", got)
	}
	if got := TrendingScore(p, 0); got != 30 {
		t.Fatalf("expected recency to drop out for zero now, got %v", got)
	}
}

func TestTrendingIsTransitiveForOneNow(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	cmp := Comparator(SortTrending, now)

	items := []*projects.Project{
		{ID: "a", CompatibilityScore: 90, CreatedTimestamp: 100_000},
		{ID: "b", CompatibilityScore: 80, CreatedTimestamp: 900_000},
		{ID: "c", CompatibilityScore: 70, CreatedTimestamp: 1_000_000},
		{ID: "d", CompatibilityScore: 95},
	}

	for _, a := range items {
		for _, b := range items {
			for _, c := range items {
				if cmp(a, b) <= 0 && cmp(b, c) <= 0 && cmp(a, c) > 0 {
					t.Fatalf("comparator not transitive for %s, %s, %s", a.ID, b.ID, c.ID)
				}
			}
		}
	}

	Sort(items, SortTrending, now)
	// a: 54+4=58, b: 48+36=84, c: 42+40=82, d: 57
	assertOrder(t, items, "b", "c", "a", "d")
}
