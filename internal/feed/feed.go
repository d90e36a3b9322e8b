// Package feed filters and orders project postings for the explore view.
package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/projects"
)

// Query is what the viewer selected: an active filter set and a sort mode.
// ExcludeOwner and Hidden drop the viewer's own and dismissed projects.
type Query struct {
	Filters      []string
	Sort         SortMode
	ExcludeOwner string
	Hidden       []string
}

// Result is a built feed together with the report of its filter steps.
type Result struct {
	Items   []*projects.Project
	Filters []Status
	Ignored []string
}

// Feed runs the filter steps and the sort over a project snapshot.
type Feed struct {
	logger *zap.Logger
	now    func() time.Time
}

// New returns a Feed. A nil clock means time.Now.
func New(logger *zap.Logger, now func() time.Time) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Feed{logger: logger, now: now}
}

// Rank filters then sorts a copy of items. The input slice and its projects are not modified.
func Rank(items []*projects.Project, active []string, mode SortMode, now time.Time) []*projects.Project {
	tags := Partition(active)
	out := make([]*projects.Project, 0, len(items))
	for _, p := range items {
		if tags.Empty() || Matches(p, tags) {
			out = append(out, p.Clone())
		}
	}
	Sort(out, mode, now)
	return out
}

// Build is Rank with step logging and the exclusion steps. The clock is read
// once per call.
func (f *Feed) Build(ctx context.Context, items []*projects.Project, q Query) (*Result, error) {
	tags := Partition(q.Filters)

	var owners []string
	if q.ExcludeOwner != "" {
		owners = []string{q.ExcludeOwner}
	}

	steps := []Filter{
		NewExclusion("own projects", projects.ProjectOwnerField, owners),
		NewExclusion("hidden", projects.ProjectIDField, q.Hidden),
		NewRoles(tags.Roles),
		NewStages(tags.Stages),
	}

	v, err := f.run(ctx, steps, (&projects.Projects{Items: items}).Clone())
	if err != nil {
		return nil, err
	}

	mode := q.Sort
	if mode == "" {
		mode = SortMatch
	}
	Sort(v.Items, mode, f.now())

	res := &Result{
		Items:   v.Items,
		Filters: Describe(steps),
		Ignored: ignored(q.Filters, tags),
	}

	f.logger.Debug("feed built",
		zap.Int("initial", len(items)),
		zap.Int("left", v.Len()),
		zap.String("sort", string(mode)),
		zap.Strings("ignored_filters", res.Ignored),
	)

	return res, nil
}

func (f *Feed) run(ctx context.Context, steps []Filter, v *projects.Projects) (*projects.Projects, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			f.logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		f.logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		v = next
	}
	return v, nil
}

func ignored(active []string, tags Tags) []string {
	known := make(map[string]struct{}, len(tags.Roles)+len(tags.Stages))
	for _, t := range tags.Roles {
		known[t] = struct{}{}
	}
	for _, t := range tags.Stages {
		known[t] = struct{}{}
	}

	var out []string
	for _, t := range active {
		if _, ok := known[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
