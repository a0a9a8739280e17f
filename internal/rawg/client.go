// Package rawg is an HTTP client for the RAWG video game database.
package rawg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/arcade/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL           = "https://api.rawg.io/api"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5.0

	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond
	refPageSize    = 40
	maxRefPages    = 10
)

var _ domain.CatalogSource = (*Client)(nil)

// Client implements domain.CatalogSource against the RAWG REST API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a RAWG client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		retryDelay: baseRetryDelay,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs a GET against the API with the key attached.
// 5xx responses are retried with exponential backoff.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "path", path)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.RemoteError{Kind: domain.RemoteNetwork, Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		c.logger.Debug("rawg request", "path", path, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("rawg request failed", "path", path, "error", err)
			return nil, &domain.RemoteError{Kind: domain.RemoteNetwork, Err: err}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &domain.RemoteError{Kind: domain.RemoteNetwork, Err: fmt.Errorf("failed to read response: %w", err)}
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, &domain.RemoteError{Kind: domain.RemoteStatus, StatusCode: resp.StatusCode, Err: domain.ErrUnauthorized}
		case resp.StatusCode == http.StatusNotFound:
			return nil, &domain.RemoteError{Kind: domain.RemoteStatus, StatusCode: resp.StatusCode, Err: domain.ErrNotFound}
		case resp.StatusCode >= 500 && resp.StatusCode < 600:
			lastErr = &domain.RemoteError{Kind: domain.RemoteStatus, StatusCode: resp.StatusCode}
			c.logger.Warn("rawg server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			continue
		case resp.StatusCode != http.StatusOK:
			c.logger.Error("rawg request error", "status", resp.StatusCode, "path", path)
			return nil, &domain.RemoteError{Kind: domain.RemoteStatus, StatusCode: resp.StatusCode}
		}

		if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
			return nil, &domain.RemoteError{Kind: domain.RemoteEmptyBody, Err: domain.ErrEmptyBody}
		}
		return body, nil
	}

	c.logger.Error("rawg request failed after retries", "path", path, "maxRetries", maxRetries)
	return nil, lastErr
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &domain.RemoteError{Kind: domain.RemoteDecode, Err: fmt.Errorf("failed to decode %s: %w", path, err)}
	}
	return nil
}

// FetchPage returns one page of /games for the given parameters
func (c *Client) FetchPage(ctx context.Context, page, pageSize int, params map[string]string) (domain.RemotePage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	for k, v := range params {
		if v != "" {
			query.Set(k, v)
		}
	}

	var resp GamesResponse
	if err := c.getJSON(ctx, "/games", query, &resp); err != nil {
		return domain.RemotePage{}, err
	}
	return MapPage(resp), nil
}

// GetGame returns full details for one game
func (c *Client) GetGame(ctx context.Context, id int) (domain.CatalogItem, error) {
	var g Game
	if err := c.getJSON(ctx, "/games/"+strconv.Itoa(id), nil, &g); err != nil {
		return domain.CatalogItem{}, err
	}
	return MapGame(g), nil
}

func (c *Client) GetPlatforms(ctx context.Context) ([]domain.Platform, error) {
	return c.fetchRefs(ctx, "/platforms")
}

func (c *Client) GetGenres(ctx context.Context) ([]domain.Genre, error) {
	return c.fetchRefs(ctx, "/genres")
}

// fetchRefs follows next links until a reference list is exhausted
func (c *Client) fetchRefs(ctx context.Context, path string) ([]domain.Ref, error) {
	var all []domain.Ref
	for page := 1; page <= maxRefPages; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("page_size", strconv.Itoa(refPageSize))

		var resp RefListResponse
		if err := c.getJSON(ctx, path, query, &resp); err != nil {
			return nil, err
		}
		all = append(all, MapRefs(resp.Results)...)
		if !hasNext(resp.Next) {
			break
		}
	}
	return all, nil
}
