package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://api.prod.whoop.com/developer"
	apiVersion      = "v2"
	pageSize        = 25
	maxResponseSize = 4 << 20
	userAgent       = "whoop-coach-mcp/1.0"
)

// TokenSource supplies bearer tokens for outgoing requests. ForceRefresh is
// invoked once when the provider rejects a token mid-flight.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// Client is a rate-limited WHOOP v2 API client. Safe for concurrent use.
type Client struct {
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	baseURL string
	log     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the production API base URL.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit replaces the default pacing of 100 requests per minute.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 10)
	}
}

// NewClient builds a client over the given token source.
func NewClient(tokens TokenSource, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Every(time.Minute/100), 10),
		baseURL: defaultBaseURL,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query bounds a collection request. Zero Start/End omit the bound; Limit 0
// means fetch everything the window holds.
type Query struct {
	Start time.Time
	End   time.Time
	Limit int
}

func (q Query) values() url.Values {
	params := url.Values{}
	if !q.Start.IsZero() {
		params.Set("start", q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		params.Set("end", q.End.UTC().Format(time.RFC3339))
	}
	page := pageSize
	if q.Limit > 0 && q.Limit < page {
		page = q.Limit
	}
	params.Set("limit", strconv.Itoa(page))
	return params
}

// get performs one authenticated GET. A 401 triggers a single forced token
// refresh and retry before giving up.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	body, status, err := c.do(ctx, endpoint, params, token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.log.Debug("access token rejected, forcing refresh", zap.String("endpoint", endpoint))
		token, err = c.tokens.ForceRefresh(ctx)
		if err != nil {
			return nil, err
		}
		body, status, err = c.do(ctx, endpoint, params, token)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, c.statusError(status, endpoint)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values, token string) ([]byte, int, error) {
	requestURL := c.baseURL + "/" + apiVersion + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) statusError(status int, endpoint string) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: GET %s", ErrUnauthorized, endpoint)
	case http.StatusForbidden:
		return fmt.Errorf("%w: GET %s", ErrForbidden, endpoint)
	case http.StatusNotFound:
		return fmt.Errorf("%w: GET %s", ErrNotFound, endpoint)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: GET %s", ErrRateLimited, endpoint)
	default:
		if status >= 500 {
			return fmt.Errorf("%w: GET %s returned %d", ErrUnavailable, endpoint, status)
		}
		return fmt.Errorf("GET %s returned unexpected status %d", endpoint, status)
	}
}

// Cycles lists physiological cycles, most recent first.
func (c *Client) Cycles(ctx context.Context, q Query) ([]Cycle, error) {
	var out []Cycle
	params := q.values()
	for {
		body, err := c.get(ctx, "/cycle", params)
		if err != nil {
			return nil, fmt.Errorf("list cycles: %w", err)
		}
		var page cycleRecords
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode cycles: %w", err)
		}
		out = append(out, page.Records...)
		if done(q, len(out), page.NextToken) {
			break
		}
		params.Set("nextToken", *page.NextToken)
	}
	return clip(out, q.Limit), nil
}

// Sleeps lists sleep activities, most recent first.
func (c *Client) Sleeps(ctx context.Context, q Query) ([]Sleep, error) {
	var out []Sleep
	params := q.values()
	for {
		body, err := c.get(ctx, "/activity/sleep", params)
		if err != nil {
			return nil, fmt.Errorf("list sleeps: %w", err)
		}
		var page sleepRecords
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode sleeps: %w", err)
		}
		out = append(out, page.Records...)
		if done(q, len(out), page.NextToken) {
			break
		}
		params.Set("nextToken", *page.NextToken)
	}
	return clip(out, q.Limit), nil
}

// Recoveries lists recovery records, most recent first.
func (c *Client) Recoveries(ctx context.Context, q Query) ([]Recovery, error) {
	var out []Recovery
	params := q.values()
	for {
		body, err := c.get(ctx, "/recovery", params)
		if err != nil {
			return nil, fmt.Errorf("list recoveries: %w", err)
		}
		var page recoveryRecords
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode recoveries: %w", err)
		}
		out = append(out, page.Records...)
		if done(q, len(out), page.NextToken) {
			break
		}
		params.Set("nextToken", *page.NextToken)
	}
	return clip(out, q.Limit), nil
}

// Workouts lists workout activities, most recent first.
func (c *Client) Workouts(ctx context.Context, q Query) ([]Workout, error) {
	var out []Workout
	params := q.values()
	for {
		body, err := c.get(ctx, "/activity/workout", params)
		if err != nil {
			return nil, fmt.Errorf("list workouts: %w", err)
		}
		var page workoutRecords
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode workouts: %w", err)
		}
		out = append(out, page.Records...)
		if done(q, len(out), page.NextToken) {
			break
		}
		params.Set("nextToken", *page.NextToken)
	}
	return clip(out, q.Limit), nil
}

// WorkoutByID fetches a single workout by its UUID.
func (c *Client) WorkoutByID(ctx context.Context, id string) (*Workout, error) {
	body, err := c.get(ctx, "/activity/workout/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get workout %s: %w", id, err)
	}
	var w Workout
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode workout: %w", err)
	}
	return &w, nil
}

// Profile fetches the authenticated user's basic profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	body, err := c.get(ctx, "/user/profile/basic", nil)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// BodyMeasurement fetches the user's latest body metrics.
func (c *Client) BodyMeasurement(ctx context.Context) (*BodyMeasurement, error) {
	body, err := c.get(ctx, "/user/measurement/body", nil)
	if err != nil {
		return nil, fmt.Errorf("get body measurement: %w", err)
	}
	var m BodyMeasurement
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode body measurement: %w", err)
	}
	return &m, nil
}

// done reports whether pagination should stop: no more pages, or enough
// records gathered to satisfy the limit.
func done(q Query, have int, next *string) bool {
	if next == nil || *next == "" {
		return true
	}
	return q.Limit > 0 && have >= q.Limit
}

func clip[T any](records []T, limit int) []T {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
