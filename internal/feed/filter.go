package feed

import (
	"context"
	"strconv"
	"strings"

	"github.com/spigell/collab-matcher/internal/projects"
)

const (
	noTagsMsg    = "no tags of this family selected"
	noTargetsMsg = "nothing to exclude"
)

// Filter represents a single filtering step applied to projects.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, v *projects.Projects) (*projects.Projects, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Matches is the inclusion predicate: role match AND stage match.
func Matches(p *projects.Project, tags Tags) bool {
	return RoleMatch(p.MissingRoles, tags.Roles) && StageMatch(p.Stage, tags.Stages)
}

type roleFilter struct {
	tags     []string
	disabled bool
	reason   string
}

// NewRoles creates a filter keeping projects that miss at least one of the selected roles.
func NewRoles(tags []string) Filter {
	f := &roleFilter{tags: tags}
	if len(tags) == 0 {
		f.Disable(noTagsMsg)
	}
	return f
}

func (f *roleFilter) Name() string { return "roles" }

func (f *roleFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *roleFilter) IsEnabled() bool { return !f.disabled }

func (f *roleFilter) Apply(_ context.Context, v *projects.Projects) (*projects.Projects, Step, error) {
	return keep(v, func(p *projects.Project) bool {
		return RoleMatch(p.MissingRoles, f.tags)
	})
}

func (f *roleFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"tags": strings.Join(f.tags, ",")},
	}
}

type stageFilter struct {
	tags     []string
	disabled bool
	reason   string
}

// NewStages creates a filter keeping projects whose stage is one of the selected stages.
func NewStages(tags []string) Filter {
	f := &stageFilter{tags: tags}
	if len(tags) == 0 {
		f.Disable(noTagsMsg)
	}
	return f
}

func (f *stageFilter) Name() string { return "stages" }

func (f *stageFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *stageFilter) IsEnabled() bool { return !f.disabled }

func (f *stageFilter) Apply(_ context.Context, v *projects.Projects) (*projects.Projects, Step, error) {
	return keep(v, func(p *projects.Project) bool {
		return StageMatch(p.Stage, f.tags)
	})
}

func (f *stageFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"tags": strings.Join(f.tags, ",")},
	}
}

type exclusionFilter struct {
	name     string
	field    string
	targets  []string
	disabled bool
	reason   string
}

// NewExclusion creates a filter dropping projects whose field (see
// projects.GetStringField) equals one of targets.
func NewExclusion(name, field string, targets []string) Filter {
	f := &exclusionFilter{name: name, field: field, targets: targets}
	if len(targets) == 0 {
		f.Disable(noTargetsMsg)
	}
	return f
}

func (f *exclusionFilter) Name() string { return f.name }

func (f *exclusionFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *exclusionFilter) IsEnabled() bool { return !f.disabled }

func (f *exclusionFilter) Apply(_ context.Context, v *projects.Projects) (*projects.Projects, Step, error) {
	initial := v.Len()
	out := &projects.Projects{Items: append([]*projects.Project(nil), v.Items...)}
	dropped := out.Exclude(f.field, f.targets)
	return out, Step{Initial: initial, Dropped: len(dropped), Left: out.Len()}, nil
}

func (f *exclusionFilter) Status() Status {
	return Status{
		Name:    f.name,
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"field": f.field, "count": strconv.Itoa(len(f.targets))},
	}
}

// keep returns a new collection with the projects accepted by pred, in input order.
func keep(v *projects.Projects, pred func(*projects.Project) bool) (*projects.Projects, Step, error) {
	initial := v.Len()
	out := &projects.Projects{Items: make([]*projects.Project, 0, initial)}
	for _, p := range v.Items {
		if pred(p) {
			out.Items = append(out.Items, p)
		}
	}
	return out, Step{Initial: initial, Dropped: initial - out.Len(), Left: out.Len()}, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(interface{ Status() Status }); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: step.Name(), Enabled: step.IsEnabled()})
	}
	return statuses
}
