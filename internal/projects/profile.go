package projects

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Profile struct {
	ID         string   `json:"id" yaml:"id" mapstructure:"id"`
	Name       string   `json:"name" yaml:"name" mapstructure:"name"`
	Email      string   `json:"email" yaml:"email" mapstructure:"email"`
	Department string   `json:"department" yaml:"department" mapstructure:"department"`
	Year       string   `json:"year,omitempty" yaml:"year" mapstructure:"year"`
	Skills     []string `json:"skills" yaml:"skills" mapstructure:"skills"`
	WorkStyle  string   `json:"workStyle" yaml:"workStyle" mapstructure:"workStyle"`
	Intensity  string   `json:"intensity" yaml:"intensity" mapstructure:"intensity"`
}

// AsOwner is what other users see of the profile on a posting.
func (p *Profile) AsOwner() Owner {
	if p == nil {
		return Owner{}
	}
	return Owner{Name: p.Name, Department: p.Department, Year: p.Year}
}

const (
	MeetupPending   = "pending"
	MeetupCompleted = "completed"

	DefaultCampusSpot = "library"
)

var ErrInvalidMeetup = errors.New("invalid meetup")

type Meetup struct {
	ID            string    `json:"id" mapstructure:"id"`
	ProjectID     string    `json:"projectId" mapstructure:"projectId"`
	ProjectName   string    `json:"projectName" mapstructure:"projectName"`
	ProposerUID   string    `json:"proposerUid" mapstructure:"proposerUid"`
	ProposerName  string    `json:"proposerName" mapstructure:"proposerName"`
	RecipientUID  string    `json:"recipientUid" mapstructure:"recipientUid"`
	RecipientName string    `json:"recipientName" mapstructure:"recipientName"`
	CampusSpot    string    `json:"campusSpot" mapstructure:"campusSpot"`
	ProposedTime  time.Time `json:"proposedTime" mapstructure:"proposedTime"`
	Status        string    `json:"status" mapstructure:"status"`
	CreatedAt     time.Time `json:"createdAt" mapstructure:"createdAt"`
}

// NewMeetup builds a pending meetup request from proposer to the project owner.
// Zero proposedAt means "as soon as possible" and is set to now.
func NewMeetup(project *Project, proposer *Profile, spot string, proposedAt, now time.Time) (*Meetup, error) {
	if project == nil {
		return nil, fmt.Errorf("%w: project is required", ErrInvalidMeetup)
	}
	if proposer == nil || proposer.ID == "" {
		return nil, fmt.Errorf("%w: proposer is required", ErrInvalidMeetup)
	}
	if project.OwnedBy(proposer.ID) {
		return nil, fmt.Errorf("%w: cannot request a meetup on your own project", ErrInvalidMeetup)
	}

	spot = strings.TrimSpace(spot)
	if spot == "" {
		spot = DefaultCampusSpot
	}
	if proposedAt.IsZero() {
		proposedAt = now
	}

	name := strings.TrimSpace(proposer.Name)
	if name == "" {
		name = "User"
	}

	return &Meetup{
		ProjectID:     project.ID,
		ProjectName:   project.Title,
		ProposerUID:   proposer.ID,
		ProposerName:  name,
		RecipientUID:  project.OwnerID,
		RecipientName: project.Owner.Name,
		CampusSpot:    spot,
		ProposedTime:  proposedAt.UTC(),
		Status:        MeetupPending,
		CreatedAt:     now.UTC(),
	}, nil
}

type Meetups struct {
	Items []*Meetup
}

func (m *Meetups) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Items)
}

// ByStatus returns the meetups with the given status, keeping order.
func (m *Meetups) ByStatus(status string) []*Meetup {
	out := make([]*Meetup, 0, m.Len())
	if m == nil {
		return out
	}
	for _, item := range m.Items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out
}
