package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/alignment"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// APIError is a non-2xx answer. It unwraps to the matching alignment error
// so callers can use errors.Is with the shared taxonomy. Code wins over
// Status when the server sent one.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if err := alignment.FromCode(e.Code); err != nil {
		return err
	}

	switch e.Status {
	case http.StatusBadRequest:
		return alignment.ErrInvalidInput
	case http.StatusUnauthorized:
		return alignment.ErrUnauthorized
	case http.StatusNotFound:
		return alignment.ErrNotFound
	case http.StatusRequestTimeout:
		return alignment.ErrTimeout
	default:
		if e.Status >= http.StatusInternalServerError {
			return alignment.ErrExternalService
		}
		return nil
	}
}

// do sends a JSON request and decodes the JSON answer into target. A 401 is
// retried once with a refreshed token.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, target any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", alignment.ErrUnauthorized, err)
	}

	err = c.send(ctx, method, path, q, payload, token, target)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}

	c.logger.Debug("refreshing token after 401", zap.String("path", path))
	token, rerr := c.tokens.Refresh(ctx)
	if rerr != nil {
		return fmt.Errorf("%w: refresh token: %w", alignment.ErrUnauthorized, rerr)
	}

	return c.send(ctx, method, path, q, payload, token, target)
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, payload []byte, token string, target any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+path, reqBody)
	if err != nil {
		return err
	}

	req = c.setHeaders(req, token)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("%w: status %s, content type %q", ErrUnexpectedFormat, resp.Status, resp.Header.Get("Content-Type"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("%w: %w", ErrUnexpectedFormat, err)
		}
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Error}
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedFormat, err)
	}

	return nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func isJSON(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	return err == nil && mediaType == contentType
}
