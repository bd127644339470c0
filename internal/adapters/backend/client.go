// Package backend is the HTTP client of the remote results backend: it reads
// matches, writes results and stores status overrides.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/types"
	"github.com/okian/pelada/pkg/logger"
	"github.com/okian/pelada/pkg/metrics"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 10
	defaultBurst     = 10
	maxErrorBody     = 64 << 10
	tenantHeader     = "X-Tenant"
)

// Client talks to the results backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	tenant     string
	logger     logger.Logger
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:     logger.Get().Named("backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func matchPath(id model.MatchID, suffix string) string {
	return "/matches/" + url.PathEscape(string(id)) + suffix
}

// do sends body as JSON and decodes a 2xx response into out when non-nil.
// 404 maps to ErrNotFound; other failures return *HTTPError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.tenant != "" {
		req.Header.Set(tenantHeader, c.tenant)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendRequest(op, "error", float64(time.Since(start).Milliseconds()))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.RecordBackendRequest(op, strconv.Itoa(resp.StatusCode), float64(time.Since(start).Milliseconds()))

	c.logger.Debug(ctx, "backend request",
		logger.String("op", op),
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// FetchMatch reads the match with its presences.
func (c *Client) FetchMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	var rec types.MatchRecord
	if err := c.do(ctx, "fetch_match", http.MethodGet, matchPath(id, ""), nil, &rec); err != nil {
		return nil, err
	}
	return toMatch(rec), nil
}

// SaveResult writes the folded result of a match.
func (c *Client) SaveResult(ctx context.Context, id model.MatchID, payload types.ResultPayload) error {
	return c.do(ctx, "save_result", http.MethodPut, matchPath(id, "/result"), payload, nil)
}

// Overrides returns a status override store kept on the backend.
func (c *Client) Overrides() *OverrideStore {
	return &OverrideStore{client: c}
}

// OverrideStore keeps status overrides on the backend, so they follow the
// operator across devices.
type OverrideStore struct {
	client *Client
}

func (s *OverrideStore) Get(ctx context.Context, id model.MatchID) (model.Status, bool, error) {
	var rec types.StatusOverrideRecord
	err := s.client.do(ctx, "get_override", http.MethodGet, matchPath(id, "/status-override"), nil, &rec)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if rec.Status == "" {
		return "", false, nil
	}
	st, err := model.ParseStatus(rec.Status)
	if err != nil {
		return "", false, err
	}
	return st, true, nil
}

func (s *OverrideStore) Put(ctx context.Context, id model.MatchID, status model.Status) error {
	if _, err := model.ParseStatus(string(status)); err != nil {
		return err
	}
	return s.client.do(ctx, "put_override", http.MethodPut, matchPath(id, "/status-override"),
		types.StatusOverrideRecord{Status: string(status)}, nil)
}

func (s *OverrideStore) Delete(ctx context.Context, id model.MatchID) error {
	err := s.client.do(ctx, "delete_override", http.MethodDelete, matchPath(id, "/status-override"), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func toMatch(rec types.MatchRecord) *model.Match {
	m := &model.Match{
		ID:        model.MatchID(rec.ID),
		Home:      model.Team{ID: model.TeamID(rec.Home.ID), Name: rec.Home.Name, LogoRef: rec.Home.Logo},
		Away:      model.Team{ID: model.TeamID(rec.Away.ID), Name: rec.Away.Name, LogoRef: rec.Away.Logo},
		Date:      rec.Date,
		Location:  rec.Location,
		Presences: make([]model.Presence, 0, len(rec.Presences)),
	}
	if rec.OfficialScore != nil {
		m.OfficialScore = &model.Score{Home: rec.OfficialScore.Home, Away: rec.OfficialScore.Away}
	}
	for _, p := range rec.Presences {
		m.Presences = append(m.Presences, model.Presence{
			Athlete: model.Athlete{
				ID:       model.AthleteID(p.Athlete.ID),
				Name:     p.Athlete.Name,
				Nickname: p.Athlete.Nickname,
				PhotoRef: p.Athlete.Photo,
				Position: p.Athlete.Position,
			},
			TeamID:   model.TeamID(p.TeamID),
			TeamName: p.TeamName,
			Goals:    p.Goals,
			Assists:  p.Assists,
			Status:   model.Participation(p.Status),
		})
	}
	return m
}
