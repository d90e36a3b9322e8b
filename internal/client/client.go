// Package client talks to the collab-matcher HTTP API.
package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultURL = "http://localhost:8080"
	userAgent  = "collab-matcher-cli"
	// The server gives the model 10s; leave room for the round trip.
	defaultTimeout = 15 * time.Second
)

// ErrUnexpectedFormat is returned when the server answers with something other than JSON.
var ErrUnexpectedFormat = errors.New("unexpected response format")

// TokenSource provides the bearer token. Refresh is called once after a 401
// to obtain a new token before the request is retried.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that cannot refresh.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

func (t StaticToken) Refresh(context.Context) (string, error) { return string(t), nil }

type Client struct {
	tokens     TokenSource
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(apiURL string, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = defaultURL
	}

	return &Client{
		tokens: tokens,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: userAgent,
		APIURL:    apiURL,
	}
}
