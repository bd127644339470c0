package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/pelada/internal/adapters/http/api"
	"github.com/okian/pelada/pkg/logger"
)

// APIError is a non-2xx answer from the editor service.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// HTTPClient talks to the editor service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *HTTPClient) matchPath(matchID string, parts ...string) string {
	p := "/matches/" + url.PathEscape(matchID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// do sends body as JSON and decodes a 2xx answer into out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Code = ""
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

// Health checks GET /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Open opens the match for editing.
func (c *HTTPClient) Open(ctx context.Context, matchID string) (api.StateView, error) {
	var st api.StateView
	err := c.do(ctx, http.MethodPost, c.matchPath(matchID, "open"), nil, &st)
	return st, err
}

// State reads the session state.
func (c *HTTPClient) State(ctx context.Context, matchID string) (api.StateView, error) {
	var st api.StateView
	err := c.do(ctx, http.MethodGet, c.matchPath(matchID), nil, &st)
	return st, err
}

// AddGoal records one goal and returns the updated state.
func (c *HTTPClient) AddGoal(ctx context.Context, matchID string, goal api.GoalRequest) (api.StateView, error) {
	var st api.StateView
	err := c.do(ctx, http.MethodPost, c.matchPath(matchID, "goals"), goal, &st)
	return st, err
}

// Undo reverts the last edit.
func (c *HTTPClient) Undo(ctx context.Context, matchID string) (api.StateView, error) {
	var st api.StateView
	err := c.do(ctx, http.MethodPost, c.matchPath(matchID, "undo"), nil, &st)
	return st, err
}

// Unlock unlocks a finished match.
func (c *HTTPClient) Unlock(ctx context.Context, matchID string) (api.StateView, error) {
	var st api.StateView
	err := c.do(ctx, http.MethodPost, c.matchPath(matchID, "unlock"), api.ConfirmRequest{Confirm: true}, &st)
	return st, err
}

// Save forces a manual save.
func (c *HTTPClient) Save(ctx context.Context, matchID string) (api.StateView, error) {
	var st api.StateView
	err := c.do(ctx, http.MethodPost, c.matchPath(matchID, "save"), nil, &st)
	return st, err
}

// Finalize finishes and locks the match.
func (c *HTTPClient) Finalize(ctx context.Context, matchID string) (api.StateView, error) {
	var st api.StateView
	err := c.do(ctx, http.MethodPost, c.matchPath(matchID, "finalize"), api.ConfirmRequest{Confirm: true}, &st)
	return st, err
}

// Close ends the session without another save.
func (c *HTTPClient) Close(ctx context.Context, matchID string) error {
	return c.do(ctx, http.MethodDelete, c.matchPath(matchID)+"?save=false", nil, nil)
}
