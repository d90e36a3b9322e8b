package projects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var ErrInvalidProject = errors.New("invalid project")

// NewProject is the owner-authored part of a posting.
type NewProject struct {
	Title         string   `json:"title"`
	ElevatorPitch string   `json:"elevatorPitch"`
	MissingRoles  []string `json:"missingRoles"`
	Tags          []string `json:"tags"`
	Stage         string   `json:"stage"`
	Status        string   `json:"status"`
	TeamSize      int      `json:"teamSize"`
	MaxTeamSize   int      `json:"maxTeamSize"`
	Timeline      string   `json:"timeline"`
	GithubLink    string   `json:"githubLink"`
}

// Normalize trims every field, spells known stages canonically and dedupes
// role and tag lists case-insensitively, keeping the first spelling seen.
func (n *NewProject) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	n.ElevatorPitch = strings.TrimSpace(n.ElevatorPitch)
	n.Stage = CanonicalStage(n.Stage)
	n.Status = strings.TrimSpace(n.Status)
	n.Timeline = strings.TrimSpace(n.Timeline)
	n.GithubLink = strings.TrimSpace(n.GithubLink)
	n.MissingRoles = normalizeList(n.MissingRoles)
	n.Tags = normalizeList(n.Tags)
}

func (n *NewProject) Validate() error {
	switch {
	case n.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidProject)
	case n.ElevatorPitch == "":
		return fmt.Errorf("%w: elevator pitch is required", ErrInvalidProject)
	case len(n.MissingRoles) == 0:
		return fmt.Errorf("%w: at least one missing role is required", ErrInvalidProject)
	case len(n.Tags) == 0:
		return fmt.Errorf("%w: at least one tag is required", ErrInvalidProject)
	case n.TeamSize < 1 || n.MaxTeamSize < 1:
		return fmt.Errorf("%w: team sizes must be positive", ErrInvalidProject)
	case n.TeamSize > n.MaxTeamSize:
		return fmt.Errorf("%w: team size %d exceeds max team size %d", ErrInvalidProject, n.TeamSize, n.MaxTeamSize)
	}
	return nil
}

// Build turns a validated posting into a project owned by ownerID.
// The store assigns the id.
func (n *NewProject) Build(ownerID string, owner Owner, createdMillis int64) (*Project, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidProject)
	}

	n.Normalize()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	status := n.Status
	if status == "" {
		status = DefaultStatus
	}

	return &Project{
		OwnerID:          ownerID,
		Owner:            owner,
		Title:            n.Title,
		ElevatorPitch:    n.ElevatorPitch,
		MissingRoles:     n.MissingRoles,
		Tags:             n.Tags,
		Stage:            n.Stage,
		Status:           status,
		TeamSize:         n.TeamSize,
		MaxTeamSize:      n.MaxTeamSize,
		Timeline:         n.Timeline,
		GithubLink:       n.GithubLink,
		CreatedTimestamp: createdMillis,
	}, nil
}

func normalizeList(items []string) []string {
	trimmed := lo.FilterMap(items, func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})
	return lo.UniqBy(trimmed, strings.ToLower)
}
