package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spigell/collab-matcher/internal/projects"
	"github.com/spigell/collab-matcher/internal/store"
)

func TestRefreshReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil, nil)
	snap := New(mem, nil, Options{})
	snap.now = func() time.Time { return time.Unix(100, 0) }

	if err := snap.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Projects(ctx).Len() != 0 {
		t.Fatal("expected empty snapshot")
	}

	if _, err := mem.CreateProject(ctx, &projects.Project{Title: "A"}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if snap.Projects(ctx).Len() != 0 {
		t.Fatal("snapshot must not change before an explicit refresh")
	}

	if err := snap.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := snap.Projects(ctx)
	if got.Len() != 1 || got.Items[0].Title != "A" {
		t.Fatalf("unexpected snapshot: %+v", got.Items)
	}
	if !snap.FetchedAt().Equal(time.Unix(100, 0)) {
		t.Fatalf("unexpected fetch time %v", snap.FetchedAt())
	}

	got.Items[0].Title = "changed"
	if snap.Projects(ctx).Items[0].Title != "A" {
		t.Fatal("callers must receive a copy")
	}
}

type failingSource struct{}

func (failingSource) ListProjects(context.Context) (*projects.Projects, error) {
	return nil, errors.New("store unavailable")
}

func TestRefreshErrorKeepsPreviousSnapshot(t *testing.T) {
	snap := New(failingSource{}, nil, Options{})
	if err := snap.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if snap.Projects(context.Background()).Len() != 0 {
		t.Fatal("expected empty snapshot")
	}
	if !snap.FetchedAt().IsZero() {
		t.Fatal("fetch time must not move on failure")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	snap := New(store.NewMemory(nil, nil), nil, Options{Schedule: "not a schedule"})
	if err := snap.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
	snap.Stop()
}

func TestDecode(t *testing.T) {
	data, _ := json.Marshal([]*projects.Project{{ID: "1", CompatibilityScore: 90}})
	got, err := decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 1 || got.Items[0].CompatibilityScore != 90 {
		t.Fatalf("unexpected decode result: %+v", got.Items)
	}
	if _, err := decode([]byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}
