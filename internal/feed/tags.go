package feed

import (
	"sort"
	"strings"

	"github.com/spigell/collab-matcher/internal/projects"
)

// RoleTargets maps role-need filter tags to the role names they match.
var RoleTargets = map[string][]string{
	"frontend":  {"Frontend Dev", "UI Designer"},
	"backend":   {"Backend Dev", "DevOps"},
	"ml":        {"ML Engineer", "AI Engineer"},
	"mobile":    {"Mobile Dev"},
	"design":    {"UI Designer"},
	"fullstack": {"Full Stack Dev"},
}

// StageLabels maps stage filter tags to their canonical stage label.
var StageLabels = map[string]string{
	"ideation":  projects.StageIdeation,
	"mvp":       projects.StageMVP,
	"prototype": projects.StagePrototype,
	"launched":  projects.StageLaunched,
}

// Tags is an active filter set split into its two families.
type Tags struct {
	Roles  []string
	Stages []string
}

// Partition splits the active filter set. Unknown tags belong to neither family
// and are dropped; duplicates are kept once.
func Partition(active []string) Tags {
	var tags Tags
	seen := make(map[string]struct{}, len(active))
	for _, tag := range active {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}

		if _, ok := RoleTargets[tag]; ok {
			tags.Roles = append(tags.Roles, tag)
			continue
		}
		if _, ok := StageLabels[tag]; ok {
			tags.Stages = append(tags.Stages, tag)
		}
	}
	return tags
}

// Empty reports whether no known tag is active, in which case every project
// passes both families.
func (t Tags) Empty() bool {
	return len(t.Roles) == 0 && len(t.Stages) == 0
}

// KnownTags lists every accepted filter tag, roles first, each group sorted.
func KnownTags() []string {
	roles := make([]string, 0, len(RoleTargets))
	for tag := range RoleTargets {
		roles = append(roles, tag)
	}
	stages := make([]string, 0, len(StageLabels))
	for tag := range StageLabels {
		stages = append(stages, tag)
	}
	sort.Strings(roles)
	sort.Strings(stages)
	return append(roles, stages...)
}

// RoleMatch reports whether any missing role contains any target of any role tag.
// No role tags means every project passes.
func RoleMatch(missingRoles []string, roleTags []string) bool {
	if len(roleTags) == 0 {
		return true
	}
	for _, tag := range roleTags {
		for _, target := range RoleTargets[tag] {
			target = strings.ToLower(target)
			for _, role := range missingRoles {
				if strings.Contains(strings.ToLower(role), target) {
					return true
				}
			}
		}
	}
	return false
}

// StageMatch reports whether stage equals the label of any stage tag, ignoring case.
// No stage tags means every project passes; an empty stage never matches a tag.
func StageMatch(stage string, stageTags []string) bool {
	if len(stageTags) == 0 {
		return true
	}
	if stage == "" {
		return false
	}
	for _, tag := range stageTags {
		if strings.EqualFold(stage, StageLabels[tag]) {
			return true
		}
	}
	return false
}
