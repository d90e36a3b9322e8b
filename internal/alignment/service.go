package alignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/collab-matcher/internal/ai"
	"github.com/spigell/collab-matcher/internal/logger"
	"github.com/spigell/collab-matcher/internal/projects"
	"github.com/spigell/collab-matcher/internal/store"
	"github.com/spigell/collab-matcher/internal/utils"
)

const (
	DefaultTimeout      = 10 * time.Second
	defaultMaxLogLength = 200
)

// Store is the part of the document store the service reads from.
type Store interface {
	GetProfile(ctx context.Context, uid string) (*projects.Profile, error)
	GetProject(ctx context.Context, id string) (*projects.Project, error)
}

type Options struct {
	Timeout      time.Duration
	MaxLogLength int
}

// Service answers alignment requests for (viewer, project) pairs.
type Service struct {
	store     Store
	generator ai.Generator
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger

	group singleflight.Group
}

// NewService creates the service. A nil generator is allowed: requests that
// need the model then fail with ErrConfiguration.
func NewService(st Store, generator ai.Generator, log *zap.Logger, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	return &Service{
		store:     st,
		generator: generator,
		timeout:   opts.Timeout,
		maxLogLen: opts.MaxLogLength,
		logger:    logger.WithComponent(log, "alignment"),
	}
}

type outcome struct {
	text string
	err  error
}

// Align returns the sanitised alignment blurb for viewer and project.
// Concurrent calls for the same pair share one outbound request.
func (s *Service) Align(ctx context.Context, viewerID, projectID string) (string, error) {
	viewerID = strings.TrimSpace(viewerID)
	projectID = strings.TrimSpace(projectID)

	if viewerID == "" {
		return "", fmt.Errorf("%w: missing viewer identity", ErrUnauthorized)
	}
	if projectID == "" {
		return "", fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}

	key := viewerID + "\x00" + projectID

	// The flight runs detached from the first caller so that its cancellation
	// does not fail the callers sharing the result.
	ch := s.group.DoChan(key, func() (any, error) {
		text, err := s.align(context.WithoutCancel(ctx), viewerID, projectID)
		return outcome{text: text, err: err}, nil
	})

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.WithPair(s.logger, viewerID, projectID).Debug("alignment request shared")
		}
		out := res.Val.(outcome)
		return out.text, out.err
	}
}

func (s *Service) align(ctx context.Context, viewerID, projectID string) (string, error) {
	profile, project, err := s.load(ctx, viewerID, projectID)
	if err != nil {
		return "", err
	}

	log := logger.WithPair(s.logger, viewerID, projectID)

	if project.OwnedBy(viewerID) {
		log.Debug("alignment skipped for owner")
		return OwnerAlignment, nil
	}

	if s.generator == nil {
		return "", ErrConfiguration
	}

	prompt := BuildPrompt(profile, project)

	log.Debug("alignment request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		log.Warn("alignment request failed", zap.Error(err))
		return "", err
	}

	log.Debug("alignment response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	return SanitizeOutput(raw), nil
}

// load reads the viewer and the project under the service timeout. The
// flight context carries no caller deadline, so this is the only bound.
func (s *Service) load(ctx context.Context, viewerID, projectID string) (*projects.Profile, *projects.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.store.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, nil, lookupError("profile", err, ErrProfileNotFound)
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, lookupError("project", err, ErrProjectNotFound)
	}

	return profile, project, nil
}

func lookupError(what string, err, notFound error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: load %s: %w", ErrTimeout, what, err)
	default:
		return fmt.Errorf("load %s: %w", what, err)
	}
}

// generate bounds the model call by the service timeout even when the
// generator ignores its context.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		text, err := s.generator.GenerateContent(callCtx, prompt)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-callCtx.Done():
		return "", fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
	case out := <-done:
		if out.err == nil {
			return out.text, nil
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrExternalService, out.err)
	}
}
