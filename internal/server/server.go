// Package server exposes the feed, alignment and meetup operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/alignment"
	"github.com/spigell/collab-matcher/internal/auth"
	"github.com/spigell/collab-matcher/internal/feed"
	"github.com/spigell/collab-matcher/internal/logger"
	"github.com/spigell/collab-matcher/internal/snapshot"
	"github.com/spigell/collab-matcher/internal/store"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Addr        string
	CORSOrigins []string
	Debug       bool
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store     store.Store
	Snapshot  *snapshot.Snapshot
	Alignment *alignment.Service
	Verifier  *auth.Verifier
	Feed      *feed.Feed
	Scorer    store.Scorer
	Logger    *zap.Logger
	Now       func() time.Time
}

type Server struct {
	cfg     Config
	deps    Deps
	engine  *gin.Engine
	metrics *metrics
	logger  *zap.Logger
}

func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Scorer == nil {
		deps.Scorer = store.HashScorer
	}
	if deps.Feed == nil {
		deps.Feed = feed.New(deps.Logger, deps.Now)
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		engine:  gin.New(),
		metrics: newMetrics(),
		logger:  logger.WithComponent(deps.Logger, "http"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), s.requestLogger())

	if len(s.cfg.CORSOrigins) > 0 {
		corsConf := cors.DefaultConfig()
		corsConf.AllowOrigins = s.cfg.CORSOrigins
		corsConf.AddAllowHeaders("Authorization")
		r.Use(cors.New(corsConf))
	}

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	api := r.Group("/api")
	api.Use(s.authRequired())

	api.GET("/auth/me", s.me)
	api.POST("/gemini/alignment", s.align)

	api.GET("/projects", s.listProjects)
	api.POST("/projects", s.createProject)

	api.GET("/meetups", s.listMeetups)
	api.POST("/meetups", s.createMeetup)
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
