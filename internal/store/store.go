// Package store keeps users, projects and meetups as documents.
package store

import (
	"context"
	"errors"

	"github.com/spigell/collab-matcher/internal/projects"
)

const (
	CollectionUsers    = "users"
	CollectionProjects = "projects"
	CollectionMeetups  = "meetups"
)

var ErrNotFound = errors.New("document not found")

// Store is the external document store the backend consumes.
type Store interface {
	GetProfile(ctx context.Context, uid string) (*projects.Profile, error)
	PutProfile(ctx context.Context, profile *projects.Profile) error

	GetProject(ctx context.Context, id string) (*projects.Project, error)
	ListProjects(ctx context.Context) (*projects.Projects, error)
	CreateProject(ctx context.Context, project *projects.Project) (*projects.Project, error)

	CreateMeetup(ctx context.Context, meetup *projects.Meetup) (*projects.Meetup, error)
	ListMeetups(ctx context.Context, uid string) (*projects.Meetups, error)

	Close() error
}
