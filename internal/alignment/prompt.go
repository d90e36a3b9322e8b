package alignment

import (
	"strings"
	"time"

	_ "embed"

	"github.com/spigell/collab-matcher/internal/projects"
)

//go:embed prompt.md
var promptTemplate string

var timelineLayouts = []string{time.RFC3339, "2006-01-02"}

// BuildPrompt renders the alignment prompt. Every interpolated value goes
// through SanitizeField.
func BuildPrompt(profile *projects.Profile, project *projects.Project) string {
	if profile == nil {
		profile = &projects.Profile{}
	}
	if project == nil {
		project = &projects.Project{}
	}

	r := strings.NewReplacer(
		"{{SKILLS}}", SanitizeField(strings.Join(profile.Skills, ", ")),
		"{{WORK_STYLE}}", SanitizeField(profile.WorkStyle),
		"{{INTENSITY}}", SanitizeField(profile.Intensity),
		"{{DEPARTMENT}}", SanitizeField(profile.Department),
		"{{TITLE}}", SanitizeField(project.Title),
		"{{TECH_STACK}}", SanitizeField(strings.Join(project.Tags, ", ")),
		"{{ROLES}}", SanitizeField(strings.Join(project.MissingRoles, ", ")),
		"{{STAGE}}", SanitizeField(project.Stage),
		"{{TIMELINE}}", SanitizeField(formatTimeline(project.Timeline)),
	)

	return r.Replace(promptTemplate)
}

// formatTimeline renders dates as MM/DD/YYYY and passes anything else through.
func formatTimeline(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range timelineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("01/02/2006")
		}
	}
	return raw
}
