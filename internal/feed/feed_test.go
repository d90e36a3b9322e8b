package feed

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/collab-matcher/internal/projects"
)

func scenario() []*projects.Project {
	return []*projects.Project{
		{ID: "1", CompatibilityScore: 92, CreatedTimestamp: 1000, MissingRoles: []string{"Frontend Dev"}, Stage: "Ideation"},
		{ID: "2", CompatibilityScore: 87, CreatedTimestamp: 3000, MissingRoles: []string{"ML Engineer"}, Stage: "MVP"},
		{ID: "3", CompatibilityScore: 78, CreatedTimestamp: 2000, MissingRoles: []string{"Full Stack Dev"}, Stage: "Prototype"},
	}
}

func TestRankScenario(t *testing.T) {
	now := time.UnixMilli(10_000)

	assertOrder(t, Rank(scenario(), nil, SortMatch, now), "1", "2", "3")
	assertOrder(t, Rank(scenario(), nil, SortRecent, now), "2", "3", "1")
}

func TestRankEmptyFilterKeepsSingleProject(t *testing.T) {
	p := &projects.Project{ID: "only"}
	for _, mode := range SortModes {
		out := Rank([]*projects.Project{p}, []string{}, mode, time.Now())
		assertOrder(t, out, "only")
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	items := scenario()
	out := Rank(items, []string{"frontend", "ml"}, SortRecent, time.Now())

	assertOrder(t, out, "2", "1")
	assertOrder(t, items, "1", "2", "3")

	out[0].Title = "changed"
	if items[1].Title != "" {
		t.Fatalf("ranked projects must not alias the input")
	}
}

func TestRankIsDeterministic(t *testing.T) {
	now := time.UnixMilli(5000)
	first := ids(Rank(scenario(), []string{"ideation", "mvp"}, SortTrending, now))
	second := ids(Rank(scenario(), []string{"ideation", "mvp"}, SortTrending, now))
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected identical output, got %v and %v", first, second)
		}
	}
}

func TestFeedBuildLogsSteps(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	frozen := time.UnixMilli(10_000)
	f := New(zap.New(core), func() time.Time { return frozen })

	out, err := f.Build(context.Background(), scenario(), Query{
		Filters: []string{"mvp", "prototype", "nonsense"},
		Sort:    SortRecent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out.Items, "2", "3")

	disabled := observed.FilterMessage("filter disabled").All()
	var names []string
	for _, entry := range disabled {
		names = append(names, entry.ContextMap()["name"].(string))
	}
	if len(names) != 3 || names[0] != "own projects" || names[1] != "hidden" || names[2] != "roles" {
		t.Fatalf("expected exclusions and roles to be logged as disabled, got %v", names)
	}
	if len(out.Filters) != 4 || out.Filters[3].Name != "stages" || !out.Filters[3].Enabled {
		t.Fatalf("unexpected filter report: %+v", out.Filters)
	}
	if len(out.Ignored) != 1 || out.Ignored[0] != "nonsense" {
		t.Fatalf("unexpected ignored filters: %v", out.Ignored)
	}

	steps := observed.FilterMessage("filter step").All()
	if len(steps) != 1 {
		t.Fatalf("expected one filter step, got %d", len(steps))
	}
	ctx := steps[0].ContextMap()
	if ctx["name"] != "stages" || ctx["dropped"] != int64(1) || ctx["left"] != int64(2) {
		t.Fatalf("unexpected step fields: %v", ctx)
	}

	built := observed.FilterMessage("feed built").All()
	if len(built) != 1 {
		t.Fatalf("expected feed built entry")
	}
	ignoredTags, ok := built[0].ContextMap()["ignored_filters"].([]interface{})
	if !ok || len(ignoredTags) != 1 || ignoredTags[0] != "nonsense" {
		t.Fatalf("unexpected ignored filters: %v", built[0].ContextMap()["ignored_filters"])
	}
}

func TestFeedBuildDefaultsToMatch(t *testing.T) {
	out, err := New(nil, nil).Build(context.Background(), scenario(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out.Items, "1", "2", "3")
}

func TestFeedBuildExcludesOwnAndHidden(t *testing.T) {
	items := scenario()
	items[0].OwnerID = "viewer"
	items[1].OwnerID = "someone"
	items[2].OwnerID = "someone"

	out, err := New(nil, nil).Build(context.Background(), items, Query{
		Sort:         SortRecent,
		ExcludeOwner: "viewer",
		Hidden:       []string{"3", "missing"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out.Items, "2")
	assertOrder(t, items, "1", "2", "3")

	for _, st := range out.Filters[:2] {
		if !st.Enabled {
			t.Fatalf("expected exclusion step %q to be enabled", st.Name)
		}
	}
}
