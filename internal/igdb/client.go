package igdb

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Vaalley/kohai/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.igdb.com/v4"

	// IGDB allows 4 requests per second per client ID.
	defaultRPS   = 4.0
	defaultBurst = 4

	// Single bucket key: the limit is per client ID, not per endpoint.
	limiterKey = "igdb"
)

// Client is a rate-limited IGDB API client. Every request carries the
// shared credential maintained by the TokenGuard.
type Client struct {
	http     *http.Client
	limiter  *ratelimit.KeyedRateLimiter
	guard    *TokenGuard
	clientID string
	baseURL  string
	logger   *slog.Logger
}

// NewClient creates an IGDB client.
func NewClient(clientID string, guard *TokenGuard, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		limiter:  ratelimit.New(defaultRPS, defaultBurst),
		guard:    guard,
		clientID: clientID,
		baseURL:  defaultBaseURL,
		logger:   logger,
	}
}

// SetBaseURL overrides the API base URL, for tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Search runs a free-text search. queryBody must be a full apicalypse
// body as produced by SearchQuery.
func (c *Client) Search(ctx context.Context, queryBody string) ([]Game, error) {
	body, err := c.doRequest(ctx, "/games", queryBody)
	if err != nil {
		return nil, wrapError("search", 0, err)
	}

	var games []Game
	if err := json.Unmarshal(body, &games); err != nil {
		return nil, wrapError("search", 0, fmt.Errorf("decode response: %w", err))
	}
	return games, nil
}

// GetGame fetches one game by IGDB ID. Returns ErrNotFound when the ID
// does not exist.
func (c *Client) GetGame(ctx context.Context, id int64) (*Game, error) {
	body, err := c.doRequest(ctx, "/games", DetailQuery(id))
	if err != nil {
		return nil, wrapError("getGame", id, err)
	}

	var games []Game
	if err := json.Unmarshal(body, &games); err != nil {
		return nil, wrapError("getGame", id, fmt.Errorf("decode response: %w", err))
	}
	if len(games) == 0 {
		return nil, wrapError("getGame", id, ErrNotFound)
	}
	return &games[0], nil
}

// doRequest executes a rate-limited POST with the current credential.
// The credential must already be valid; a 401 here is surfaced, not
// retried, since refreshing is the caller's decision.
func (c *Client) doRequest(ctx context.Context, path, queryBody string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.guard.Token()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(queryBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug("igdb request", "path", path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
