package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/alignment"
	"github.com/spigell/collab-matcher/internal/feed"
	"github.com/spigell/collab-matcher/internal/projects"
	"github.com/spigell/collab-matcher/internal/store"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "collab-matcher is running"})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": identity(c)})
}

type alignmentRequest struct {
	ProjectID any `json:"projectId"`
}

func (s *Server) align(c *gin.Context) {
	var req alignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.alignmentError(c, alignment.ErrInvalidInput)
		return
	}

	projectID, ok := req.ProjectID.(string)
	if !ok || strings.TrimSpace(projectID) == "" {
		s.alignmentError(c, alignment.ErrInvalidInput)
		return
	}

	if s.deps.Alignment == nil {
		s.alignmentError(c, alignment.ErrConfiguration)
		return
	}

	text, err := s.deps.Alignment.Align(c.Request.Context(), identity(c).UID, projectID)
	if err != nil {
		s.alignmentError(c, err)
		return
	}

	s.metrics.observeAlignment(http.StatusOK)
	c.JSON(http.StatusOK, gin.H{"alignment": text})
}

func (s *Server) alignmentError(c *gin.Context, err error) {
	status := alignment.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("alignment failed", zap.Error(err))
	}
	s.metrics.observeAlignment(status)
	c.JSON(status, gin.H{"error": alignment.Message(err), "code": alignment.Code(err)})
}

func (s *Server) listProjects(c *gin.Context) {
	mode, err := feed.ParseSortMode(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.deps.Snapshot == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Project feed is not configured"})
		return
	}

	viewer := identity(c)
	ctx := c.Request.Context()

	scored := store.WithScores(viewer.UID, s.deps.Snapshot.Projects(ctx), s.deps.Scorer)
	q := feed.Query{
		Filters: filterTags(c.QueryArray("filter")),
		Sort:    mode,
		Hidden:  splitList(c.QueryArray("hide")),
	}
	if hideOwn, _ := strconv.ParseBool(c.Query("hideOwn")); hideOwn {
		q.ExcludeOwner = viewer.UID
	}

	res, err := s.deps.Feed.Build(ctx, scored.Items, q)
	if err != nil {
		s.logger.Error("building feed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load projects"})
		return
	}

	s.metrics.feedSize.Set(float64(len(res.Items)))
	c.JSON(http.StatusOK, gin.H{
		"projects":       res.Items,
		"count":          len(res.Items),
		"sort":           mode,
		"filters":        res.Filters,
		"ignoredFilters": res.Ignored,
	})
}

// filterTags accepts both repeated and comma separated filter parameters.
func filterTags(values []string) []string {
	tags := splitList(values)
	for i, tag := range tags {
		tags[i] = strings.ToLower(tag)
	}
	return tags
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func (s *Server) createProject(c *gin.Context) {
	var req projects.NewProject
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project payload"})
		return
	}

	viewer := identity(c)
	ctx := c.Request.Context()

	owner := projects.Owner{Name: viewer.Name, Avatar: viewer.Picture}
	if profile, err := s.deps.Store.GetProfile(ctx, viewer.UID); err == nil {
		owner = profile.AsOwner()
		owner.Avatar = viewer.Picture
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("loading owner profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create project"})
		return
	}

	project, err := req.Build(viewer.UID, owner, s.deps.Now().UnixMilli())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.deps.Store.CreateProject(ctx, project)
	if err != nil {
		s.logger.Error("creating project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create project"})
		return
	}

	if s.deps.Snapshot != nil {
		if err := s.deps.Snapshot.Refresh(ctx); err != nil {
			s.logger.Warn("refreshing snapshot after create", zap.Error(err))
		}
	}

	s.logger.Info("project created", zap.String("project_id", created.ID), zap.String("owner_id", viewer.UID))
	c.JSON(http.StatusCreated, gin.H{"project": created})
}

type meetupRequest struct {
	ProjectID    string    `json:"projectId" binding:"required"`
	CampusSpot   string    `json:"campusSpot"`
	ProposedTime time.Time `json:"proposedTime"`
}

func (s *Server) createMeetup(c *gin.Context) {
	var req meetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meetup payload"})
		return
	}

	viewer := identity(c)
	ctx := c.Request.Context()

	project, err := s.deps.Store.GetProject(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		s.logger.Error("loading project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not request meetup"})
		return
	}

	proposer, err := s.deps.Store.GetProfile(ctx, viewer.UID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("loading proposer profile", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not request meetup"})
			return
		}
		proposer = &projects.Profile{ID: viewer.UID, Name: viewer.Name, Email: viewer.Email}
	}

	meetup, err := projects.NewMeetup(project, proposer, req.CampusSpot, req.ProposedTime, s.deps.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.deps.Store.CreateMeetup(ctx, meetup)
	if err != nil {
		s.logger.Error("creating meetup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not request meetup"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"meetup": created})
}

func (s *Server) listMeetups(c *gin.Context) {
	viewer := identity(c)

	list, err := s.deps.Store.ListMeetups(c.Request.Context(), viewer.UID)
	if err != nil {
		s.logger.Error("listing meetups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load meetups"})
		return
	}

	items := list.Items
	if status := c.Query("status"); status != "" {
		items = list.ByStatus(status)
	}
	if items == nil {
		items = []*projects.Meetup{}
	}

	c.JSON(http.StatusOK, gin.H{"meetups": items, "count": len(items)})
}
