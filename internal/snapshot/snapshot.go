// Package snapshot keeps the last fetched project list. The feed is always
// computed from a snapshot, never from a live store subscription.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/logger"
	"github.com/spigell/collab-matcher/internal/projects"
)

const (
	defaultKey = "collab-matcher:projects"
	defaultTTL = 30 * time.Minute
)

// Source is where snapshots are fetched from.
type Source interface {
	ListProjects(ctx context.Context) (*projects.Projects, error)
}

type Options struct {
	// Schedule is a cron spec such as "@every 5m". Empty disables scheduled refresh.
	Schedule string
	// Redis, when set, mirrors the snapshot so several instances serve the same one.
	Redis *redis.Client
	Key   string
	TTL   time.Duration
}

type Snapshot struct {
	source Source
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	items     *projects.Projects
	fetchedAt time.Time

	cron *cron.Cron
}

func New(source Source, log *zap.Logger, opts Options) *Snapshot {
	if opts.Key == "" {
		opts.Key = defaultKey
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}

	return &Snapshot{
		source: source,
		opts:   opts,
		logger: logger.WithComponent(log, "snapshot"),
		now:    time.Now,
		items:  &projects.Projects{},
	}
}

// Refresh fetches the full project list and replaces the snapshot.
func (s *Snapshot) Refresh(ctx context.Context) error {
	items, err := s.source.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.fetchedAt = s.now()
	s.mu.Unlock()

	s.logger.Debug("snapshot refreshed", zap.Int("projects", items.Len()))

	if s.opts.Redis != nil {
		if err := s.publish(ctx, items); err != nil {
			// The local copy is still valid.
			s.logger.Warn("publishing snapshot to redis", zap.Error(err))
		}
	}

	return nil
}

// Projects returns a copy of the current snapshot. With redis configured the
// shared copy wins over the local one when it can be read.
func (s *Snapshot) Projects(ctx context.Context) *projects.Projects {
	if s.opts.Redis != nil {
		shared, err := s.fetchShared(ctx)
		switch {
		case err == nil:
			return shared
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("reading snapshot from redis", zap.Error(err))
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Clone()
}

// FetchedAt is the time of the last successful local refresh.
func (s *Snapshot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Start runs an initial refresh and schedules the next ones.
func (s *Snapshot) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	if s.opts.Schedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.opts.Schedule, func() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Error("scheduled refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron = c
	s.cron.Start()
	s.logger.Info("scheduled refresh started", zap.String("schedule", s.opts.Schedule))
	return nil
}

// Stop stops scheduled refreshes and waits for a running one to finish.
func (s *Snapshot) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("scheduled refresh stopped")
}

func (s *Snapshot) publish(ctx context.Context, items *projects.Projects) error {
	data, err := json.Marshal(items.Items)
	if err != nil {
		return err
	}
	return s.opts.Redis.Set(ctx, s.opts.Key, data, s.opts.TTL).Err()
}

func (s *Snapshot) fetchShared(ctx context.Context) (*projects.Projects, error) {
	data, err := s.opts.Redis.Get(ctx, s.opts.Key).Bytes()
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func decode(data []byte) (*projects.Projects, error) {
	var items []*projects.Project
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &projects.Projects{Items: items}, nil
}

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}
