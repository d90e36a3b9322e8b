package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/spigell/collab-matcher/internal/auth"
	"github.com/spigell/collab-matcher/internal/feed"
	"github.com/spigell/collab-matcher/internal/projects"
)

const (
	mePath        = "/api/auth/me"
	alignmentPath = "/api/gemini/alignment"
	projectsPath  = "/api/projects"
	meetupsPath   = "/api/meetups"
)

func (c *Client) Me(ctx context.Context) (*auth.Identity, error) {
	var resp struct {
		User *auth.Identity `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, mePath, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Alignment asks the server how well the caller fits projectID.
func (c *Client) Alignment(ctx context.Context, projectID string) (string, error) {
	var resp struct {
		Alignment string `json:"alignment"`
	}
	body := map[string]string{"projectId": projectID}
	if err := c.do(ctx, http.MethodPost, alignmentPath, nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Alignment, nil
}

// FeedQuery mirrors the feed endpoint's query parameters.
type FeedQuery struct {
	Sort    string
	Filters []string
	HideOwn bool
	Hidden  []string
}

// FeedPage is the ranked feed plus the server's filter report.
type FeedPage struct {
	Projects []*projects.Project `json:"projects"`
	Filters  []feed.Status       `json:"filters"`
	Ignored  []string            `json:"ignoredFilters"`
}

// Projects returns the ranked feed for q.
func (c *Client) Projects(ctx context.Context, fq FeedQuery) (*FeedPage, error) {
	q := url.Values{}
	if fq.Sort != "" {
		q.Set("sort", fq.Sort)
	}
	for _, f := range fq.Filters {
		q.Add("filter", f)
	}
	for _, id := range fq.Hidden {
		q.Add("hide", id)
	}
	if fq.HideOwn {
		q.Set("hideOwn", "true")
	}

	var page FeedPage
	if err := c.do(ctx, http.MethodGet, projectsPath, q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateProject(ctx context.Context, p *projects.NewProject) (*projects.Project, error) {
	var resp struct {
		Project *projects.Project `json:"project"`
	}
	if err := c.do(ctx, http.MethodPost, projectsPath, nil, p, &resp); err != nil {
		return nil, err
	}
	return resp.Project, nil
}

// RequestMeetup proposes a meetup with the owner of projectID. Empty spot and
// zero time let the server pick its defaults.
func (c *Client) RequestMeetup(ctx context.Context, projectID, spot string, at time.Time) (*projects.Meetup, error) {
	body := map[string]any{"projectId": projectID}
	if spot != "" {
		body["campusSpot"] = spot
	}
	if !at.IsZero() {
		body["proposedTime"] = at
	}

	var resp struct {
		Meetup *projects.Meetup `json:"meetup"`
	}
	if err := c.do(ctx, http.MethodPost, meetupsPath, nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Meetup, nil
}

func (c *Client) Meetups(ctx context.Context) (*projects.Meetups, error) {
	var resp struct {
		Meetups []*projects.Meetup `json:"meetups"`
	}
	if err := c.do(ctx, http.MethodGet, meetupsPath, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &projects.Meetups{Items: resp.Meetups}, nil
}
