package client

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spigell/collab-matcher/internal/alignment"
)

type refreshingTokens struct {
	current   string
	next      string
	refreshes atomic.Int32
}

func (r *refreshingTokens) Token(context.Context) (string, error) { return r.current, nil }

func (r *refreshingTokens) Refresh(context.Context) (string, error) {
	r.refreshes.Add(1)
	r.current = r.next
	return r.current, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAlignment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, alignmentPath, r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "p1", body["projectId"])

		writeJSON(w, http.StatusOK, map[string]string{"alignment": "Good fit."})
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok"), nil)
	text, err := c.Alignment(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Good fit.", text)
}

func TestRefreshesTokenOnceOn401(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized: Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"alignment": "ok"})
	}))
	defer srv.Close()

	tokens := &refreshingTokens{current: "stale", next: "fresh"}
	c := New(srv.URL, tokens, nil)

	text, err := c.Alignment(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.EqualValues(t, 1, tokens.refreshes.Load())
	require.EqualValues(t, 2, calls.Load())
}

func TestUnauthorizedAfterRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized: Invalid token"})
	}))
	defer srv.Close()

	tokens := &refreshingTokens{current: "a", next: "b"}
	_, err := New(srv.URL, tokens, nil).Alignment(context.Background(), "p1")
	require.ErrorIs(t, err, alignment.ErrUnauthorized)
	require.EqualValues(t, 1, tokens.refreshes.Load())
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		expected error
	}{
		{http.StatusBadRequest, alignment.ErrInvalidInput},
		{http.StatusNotFound, alignment.ErrNotFound},
		{http.StatusRequestTimeout, alignment.ErrTimeout},
		{http.StatusInternalServerError, alignment.ErrExternalService},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, tt.status, map[string]string{"error": "message from server"})
		}))

		_, err := New(srv.URL, StaticToken("t"), nil).Alignment(context.Background(), "p1")
		srv.Close()

		require.ErrorIs(t, err, tt.expected)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, "message from server", apiErr.Message)
	}
}

func TestErrorCodeKeepsFailureClass(t *testing.T) {
	tests := []struct {
		code      string
		expected  error
		retryable bool
	}{
		{alignment.CodeConfiguration, alignment.ErrConfiguration, false},
		{alignment.CodeExternalService, alignment.ErrExternalService, true},
		{alignment.CodeInternal, alignment.ErrExternalService, true},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": alignment.Message(tt.expected),
				"code":  tt.code,
			})
		}))

		_, err := New(srv.URL, StaticToken("t"), nil).Alignment(context.Background(), "p1")
		srv.Close()

		require.ErrorIs(t, err, tt.expected, tt.code)
		require.Equal(t, tt.retryable, alignment.Retryable(err), tt.code)
	}

	var apiErr *APIError
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Alignment service is not configured", "code": alignment.CodeConfiguration})
	}))
	defer srv.Close()

	_, err := New(srv.URL, StaticToken("t"), nil).Alignment(context.Background(), "p1")
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, alignment.CodeConfiguration, apiErr.Code)
	require.False(t, errors.Is(err, alignment.ErrExternalService))
}

func TestNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, StaticToken("t"), nil).Alignment(context.Background(), "p1")
	require.ErrorIs(t, err, ErrUnexpectedFormat)
}

func TestProjectsGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "recent", r.URL.Query().Get("sort"))
		require.Equal(t, []string{"mvp", "ml"}, r.URL.Query()["filter"])
		require.Equal(t, []string{"p9"}, r.URL.Query()["hide"])
		require.Equal(t, "true", r.URL.Query().Get("hideOwn"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_ = json.NewEncoder(gz).Encode(map[string]any{
			"projects":       []map[string]any{{"id": "2", "title": "two"}, {"id": "3", "title": "three"}},
			"filters":        []map[string]any{{"name": "stages", "enabled": true}},
			"ignoredFilters": []string{"blockchain"},
		})
		_ = gz.Close()
	}))
	defer srv.Close()

	page, err := New(srv.URL, StaticToken("t"), nil).Projects(context.Background(), FeedQuery{
		Sort:    "recent",
		Filters: []string{"mvp", "ml"},
		HideOwn: true,
		Hidden:  []string{"p9"},
	})
	require.NoError(t, err)
	require.Len(t, page.Projects, 2)
	require.Equal(t, "two", page.Projects[0].Title)
	require.Equal(t, "stages", page.Filters[0].Name)
	require.True(t, page.Filters[0].Enabled)
	require.Equal(t, []string{"blockchain"}, page.Ignored)
}
