// Package cfbd is a client for the CollegeFootballData.com REST API,
// covering the endpoints the bowl prediction pipeline needs: games,
// season stats, SP+ ratings, betting lines, and team records.
package cfbd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/macks26/capital-one-bowl-mania/internal/metrics"
)

const defaultBaseURL = "https://api.collegefootballdata.com"

// Season types accepted by the games and lines endpoints.
const (
	SeasonRegular    = "regular"
	SeasonPostseason = "postseason"
	SeasonBoth       = "both"
)

// Error codes carried by APIError.
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// APIError represents errors from CFBD API operations.
type APIError struct {
	Endpoint string // API endpoint name
	Code     string // Error code (e.g., "rate_limit_exceeded")
	Message  string // Error message
	Err      error  // Underlying error
}

func (e APIError) Error() string {
	if e.Err != nil {
		return e.Endpoint + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Endpoint + ": " + e.Code + ": " + e.Message
}

func (e APIError) Unwrap() error { return e.Err }

func newAPIError(endpoint, code, message string, err error) APIError {
	return APIError{Endpoint: endpoint, Code: code, Message: message, Err: err}
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL  string
	APIKey   string
	HTTP     HTTPClientConfig
	CacheTTL CacheTTL
	Logger   *logrus.Logger
}

// Client fetches data from the CFBD API with in-memory response caching.
type Client struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	cache      *memoryCache
	logger     *logrus.Logger
}

// NewClient creates a CFBD API client. An empty API key is allowed; the
// free endpoints still answer, just heavily rate limited.
func NewClient(opt ClientOptions) *Client {
	if opt.BaseURL == "" {
		opt.BaseURL = defaultBaseURL
	}
	if opt.HTTP == (HTTPClientConfig{}) {
		opt.HTTP = DefaultHTTPClientConfig()
	}
	if opt.Logger == nil {
		opt.Logger = logrus.New()
		opt.Logger.SetOutput(io.Discard)
	}
	if opt.APIKey == "" {
		opt.Logger.Warn("No CFBD API key configured, requests may be rate limited")
	}

	return &Client{
		httpClient: NewRateLimitedHTTPClient(opt.HTTP, opt.Logger),
		baseURL:    opt.BaseURL,
		apiKey:     opt.APIKey,
		cache:      newMemoryCache(opt.CacheTTL),
		logger:     opt.Logger,
	}
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	return c.httpClient.Close()
}

// Games fetches games for a season. seasonType is one of SeasonRegular,
// SeasonPostseason, or SeasonBoth.
func (c *Client) Games(ctx context.Context, year int, seasonType string) ([]Game, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))
	params.Set("seasonType", seasonType)

	var games []Game
	if err := c.get(ctx, "games", "/games", params, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// TeamStats fetches season-level team statistics for a year.
func (c *Client) TeamStats(ctx context.Context, year int) ([]TeamSeasonStat, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))

	var stats []TeamSeasonStat
	if err := c.get(ctx, "team_stats", "/stats/season", params, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// SPRatings fetches SP+ ratings for a year.
func (c *Client) SPRatings(ctx context.Context, year int) ([]SPRating, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))

	var ratings []SPRating
	if err := c.get(ctx, "sp_ratings", "/ratings/sp", params, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

// Lines fetches betting lines for a season.
func (c *Client) Lines(ctx context.Context, year int, seasonType string) ([]GameLines, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))
	params.Set("seasonType", seasonType)

	var lines []GameLines
	if err := c.get(ctx, "betting_lines", "/lines", params, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Records fetches team season records for a year.
func (c *Client) Records(ctx context.Context, year int) ([]TeamRecord, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))

	var records []TeamRecord
	if err := c.get(ctx, "records", "/records", params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchBowlData aggregates bowl games, stats, ratings, lines, and records
// across multiple seasons. Missing ancillary data for a year is logged
// and skipped; only the games endpoint is fatal.
func (c *Client) FetchBowlData(ctx context.Context, years []int) (*BowlData, error) {
	data := &BowlData{}

	for _, year := range years {
		c.logger.WithField("year", year).Info("Fetching bowl data")

		games, err := c.Games(ctx, year, SeasonPostseason)
		if err != nil {
			return nil, fmt.Errorf("fetching games for %d: %w", year, err)
		}
		data.Games = append(data.Games, games...)

		if stats, err := c.TeamStats(ctx, year); err != nil {
			c.logger.WithError(err).WithField("year", year).Warn("Team stats unavailable")
		} else {
			data.TeamStats = append(data.TeamStats, stats...)
		}

		if ratings, err := c.SPRatings(ctx, year); err != nil {
			c.logger.WithError(err).WithField("year", year).Warn("SP+ ratings unavailable")
		} else {
			data.SPRatings = append(data.SPRatings, ratings...)
		}

		if lines, err := c.Lines(ctx, year, SeasonPostseason); err != nil {
			c.logger.WithError(err).WithField("year", year).Warn("Betting lines unavailable")
		} else {
			data.Lines = append(data.Lines, lines...)
		}

		if records, err := c.Records(ctx, year); err != nil {
			c.logger.WithError(err).WithField("year", year).Warn("Records unavailable")
		} else {
			data.Records = append(data.Records, records...)
		}
	}

	return data, nil
}

// get performs a cached GET against an endpoint and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	key := cacheKey(path, params)
	if raw, ok := c.cache.get(key); ok {
		metrics.RecordCacheHit("memory")
		return json.Unmarshal(raw, out)
	}

	metrics.RecordAPIRequest(endpoint)
	start := time.Now()
	defer func() {
		metrics.RecordFetchDuration(endpoint, time.Since(start).Seconds())
	}()

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		metrics.RecordAPIError(endpoint)
		return newAPIError(endpoint, ErrCodeNetworkError, "failed to create request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		metrics.RecordAPIError(endpoint)
		return newAPIError(endpoint, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		metrics.RecordAPIError(endpoint)
		return newAPIError(endpoint, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordAPIError(endpoint)
		return newAPIError(endpoint, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordAPIError(endpoint)
		return newAPIError(endpoint, ErrCodeNotFound, "not found", nil)
	case resp.StatusCode != http.StatusOK:
		metrics.RecordAPIError(endpoint)
		body, _ := io.ReadAll(resp.Body)
		return newAPIError(endpoint, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordAPIError(endpoint)
		return newAPIError(endpoint, ErrCodeNetworkError, "failed to read response", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		metrics.RecordAPIError(endpoint)
		return newAPIError(endpoint, ErrCodeInvalidData, "failed to parse response", err)
	}

	c.cache.set(key, raw)
	return nil
}

func cacheKey(path string, params url.Values) string {
	return path + "?" + params.Encode()
}
