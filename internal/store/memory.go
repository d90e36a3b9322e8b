package store

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/collab-matcher/internal/projects"
)

// Seed is the YAML layout accepted by LoadSeed.
type Seed struct {
	Users    []*projects.Profile `yaml:"users"`
	Projects []*projects.Project `yaml:"projects"`
}

// Memory is an in-process Store used for development and tests.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]*projects.Profile
	projects map[string]*projects.Project
	meetups  map[string]*projects.Meetup
	now      func() time.Time
	logger   *zap.Logger
}

func NewMemory(logger *zap.Logger, now func() time.Time) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		users:    make(map[string]*projects.Profile),
		projects: make(map[string]*projects.Project),
		meetups:  make(map[string]*projects.Meetup),
		now:      now,
		logger:   logger,
	}
}

// LoadSeed reads a YAML seed file into the store.
func (m *Memory) LoadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file %q: %w", path, err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file %q: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range seed.Users {
		if u == nil || u.ID == "" {
			continue
		}
		c := *u
		m.users[u.ID] = &c
	}
	for _, p := range seed.Projects {
		if p == nil {
			continue
		}
		c := p.Clone()
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Status == "" {
			c.Status = projects.DefaultStatus
		}
		m.projects[c.ID] = c
	}

	m.logger.Info("seed loaded",
		zap.String("file", path),
		zap.Int("users", len(seed.Users)),
		zap.Int("projects", len(seed.Projects)),
	)
	return nil
}

func (m *Memory) GetProfile(_ context.Context, uid string) (*projects.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[uid]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", CollectionUsers, uid, ErrNotFound)
	}
	c := *u
	c.Skills = slices.Clone(u.Skills)
	return &c, nil
}

func (m *Memory) PutProfile(_ context.Context, profile *projects.Profile) error {
	if profile == nil || profile.ID == "" {
		return fmt.Errorf("profile id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *profile
	c.Skills = slices.Clone(profile.Skills)
	m.users[profile.ID] = &c
	return nil
}

func (m *Memory) GetProject(_ context.Context, id string) (*projects.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", CollectionProjects, id, ErrNotFound)
	}
	return p.Clone(), nil
}

// ListProjects returns every project, oldest first.
func (m *Memory) ListProjects(_ context.Context) (*projects.Projects, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*projects.Project, 0, len(m.projects))
	for _, p := range m.projects {
		items = append(items, p.Clone())
	}
	slices.SortFunc(items, func(a, b *projects.Project) int {
		if c := cmp.Compare(a.CreatedTimestamp, b.CreatedTimestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return &projects.Projects{Items: items}, nil
}

func (m *Memory) CreateProject(_ context.Context, project *projects.Project) (*projects.Project, error) {
	if project == nil {
		return nil, fmt.Errorf("project is required")
	}

	c := project.Clone()
	c.ID = uuid.NewString()
	if c.CreatedTimestamp == 0 {
		c.CreatedTimestamp = m.now().UnixMilli()
	}

	m.mu.Lock()
	m.projects[c.ID] = c
	m.mu.Unlock()

	return c.Clone(), nil
}

func (m *Memory) CreateMeetup(_ context.Context, meetup *projects.Meetup) (*projects.Meetup, error) {
	if meetup == nil {
		return nil, fmt.Errorf("meetup is required")
	}

	c := *meetup
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}

	m.mu.Lock()
	m.meetups[c.ID] = &c
	m.mu.Unlock()

	out := c
	return &out, nil
}

// ListMeetups returns meetups where uid is the proposer or the recipient, newest first.
func (m *Memory) ListMeetups(_ context.Context, uid string) (*projects.Meetups, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []*projects.Meetup
	for _, mt := range m.meetups {
		if mt.ProposerUID != uid && mt.RecipientUID != uid {
			continue
		}
		c := *mt
		items = append(items, &c)
	}
	slices.SortFunc(items, func(a, b *projects.Meetup) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return &projects.Meetups{Items: items}, nil
}

func (m *Memory) Close() error {
	return nil
}
