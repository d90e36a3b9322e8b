package projects

import (
	"encoding/json"
	"os"
	"strings"
	"time"
)

const (
	ProjectIDField    = "ID"
	ProjectOwnerField = "OwnerID"
)

// Known stage labels offered by the posting form. Owners may still type
// anything, so Stage stays a plain string.
const (
	StageIdeation  = "Ideation"
	StageDesign    = "Design/Research"
	StagePrototype = "Prototype"
	StageMVP       = "MVP"
	StagePilot     = "Pilot/Scaling"
	StageLaunched  = "Launched"
)

// Stages lists the known labels in lifecycle order.
var Stages = []string{StageIdeation, StageDesign, StagePrototype, StageMVP, StagePilot, StageLaunched}

// CanonicalStage returns the known label matching stage case-insensitively,
// or the trimmed input when it is free text.
func CanonicalStage(stage string) string {
	stage = strings.TrimSpace(stage)
	for _, known := range Stages {
		if strings.EqualFold(known, stage) {
			return known
		}
	}
	return stage
}

const DefaultStatus = "recruiting"

type Projects struct {
	Items []*Project
}

type Owner struct {
	Name       string `json:"name,omitempty" yaml:"name" mapstructure:"name"`
	Avatar     string `json:"avatar,omitempty" yaml:"avatar" mapstructure:"avatar"`
	Department string `json:"department,omitempty" yaml:"department" mapstructure:"department"`
	Year       string `json:"year,omitempty" yaml:"year" mapstructure:"year"`
}

type Project struct {
	ID                 string   `json:"id" yaml:"id" mapstructure:"id"`
	OwnerID            string   `json:"ownerId" yaml:"ownerId" mapstructure:"ownerId"`
	Owner              Owner    `json:"owner" yaml:"owner" mapstructure:"owner"`
	Title              string   `json:"title" yaml:"title" mapstructure:"title"`
	ElevatorPitch      string   `json:"elevatorPitch" yaml:"elevatorPitch" mapstructure:"elevatorPitch"`
	MissingRoles       []string `json:"missingRoles" yaml:"missingRoles" mapstructure:"missingRoles"`
	Tags               []string `json:"tags" yaml:"tags" mapstructure:"tags"`
	Stage              string   `json:"stage,omitempty" yaml:"stage" mapstructure:"stage"`
	Status             string   `json:"status,omitempty" yaml:"status" mapstructure:"status"`
	TeamSize           int      `json:"teamSize" yaml:"teamSize" mapstructure:"teamSize"`
	MaxTeamSize        int      `json:"maxTeamSize" yaml:"maxTeamSize" mapstructure:"maxTeamSize"`
	Timeline           string   `json:"timeline,omitempty" yaml:"timeline" mapstructure:"timeline"`
	GithubLink         string   `json:"githubLink,omitempty" yaml:"githubLink" mapstructure:"githubLink"`
	CompatibilityScore int      `json:"compatibilityScore" yaml:"compatibilityScore" mapstructure:"compatibilityScore"`
	// StoredScore pins the score for every viewer. Nil means the score is
	// derived at fetch time; zero is a valid pinned score.
	StoredScore      *int  `json:"storedScore,omitempty" yaml:"storedScore" mapstructure:"storedScore"`
	CreatedTimestamp int64 `json:"createdTimestamp,omitempty" yaml:"createdTimestamp" mapstructure:"createdTimestamp"`
}

// Clone returns a copy that shares no slices with p.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.MissingRoles = append([]string(nil), p.MissingRoles...)
	c.Tags = append([]string(nil), p.Tags...)
	if p.StoredScore != nil {
		score := *p.StoredScore
		c.StoredScore = &score
	}
	return &c
}

// CreatedAt converts the epoch-millis timestamp. Zero timestamps give the zero time.
func (p *Project) CreatedAt() time.Time {
	if p.CreatedTimestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.CreatedTimestamp)
}

func (p *Project) OwnedBy(uid string) bool {
	return uid != "" && p.OwnerID == uid
}

func (p *Project) GetStringField(name string) string {
	switch name {
	case ProjectIDField:
		return p.ID
	case ProjectOwnerField:
		return p.OwnerID
	default:
		return ""
	}
}

func (v *Projects) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

func (v *Projects) FindByID(id string) *Project {
	for _, p := range v.Items {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (v *Projects) IDs() []string {
	ids := make([]string, 0, len(v.Items))
	for _, p := range v.Items {
		ids = append(ids, p.ID)
	}
	return ids
}

// Exclude drops projects whose field equals one of targets and returns the dropped ids.
// Relative order of the remaining projects is kept.
func (v *Projects) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}

	var excluded []string
	kept := make([]*Project, 0, len(v.Items))
	for _, p := range v.Items {
		if _, ok := set[p.GetStringField(name)]; ok {
			excluded = append(excluded, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	v.Items = kept
	return excluded
}

// Clone copies the collection and every project in it.
func (v *Projects) Clone() *Projects {
	c := &Projects{Items: make([]*Project, 0, v.Len())}
	if v == nil {
		return c
	}
	for _, p := range v.Items {
		c.Items = append(c.Items, p.Clone())
	}
	return c
}

func (v *Projects) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "projects_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByStage groups titles by stage; projects without a stage go under "unspecified".
func (v *Projects) ReportByStage() map[string][]string {
	report := make(map[string][]string)
	for _, p := range v.Items {
		key := strings.TrimSpace(p.Stage)
		if key == "" {
			key = "unspecified"
		}
		report[key] = append(report[key], p.Title)
	}
	return report
}
