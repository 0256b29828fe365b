package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the odds provider's API root
	DefaultBaseURL = "https://api.the-odds-api.com"

	// The provider enforces a request-per-second ceiling independently of
	// 429 signalling, so consecutive calls are spaced client-side.
	defaultRateLimit = 1.0 // requests per second
	defaultBurst     = 1

	defaultMaxAttempts   = 4
	defaultRetryDelay    = 3 * time.Second
	defaultRetryAfter429 = 60 * time.Second
)

// Client fetches historical market snapshots from the odds provider. Calls
// are serialized by the orchestrator; the limiter only enforces minimum
// spacing between consecutive requests.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	maxAttempts   int
	retryDelay    time.Duration
	retryAfter429 time.Duration

	// Budget accounting. Every attempt consumes provider quota, including
	// retried ones; remaining is whatever the provider last reported.
	requestsUsed  int
	lastRemaining int
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (useful for tests)
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom inter-call spacing
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetryPolicy overrides attempt count and delays (tests use short ones)
func WithRetryPolicy(maxAttempts int, retryDelay, retryAfter429 time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.retryDelay = retryDelay
		c.retryAfter429 = retryAfter429
	}
}

// NewClient creates a new odds API client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:       rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxAttempts:   defaultMaxAttempts,
		retryDelay:    defaultRetryDelay,
		retryAfter429: defaultRetryAfter429,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchSnapshot returns the market events visible at the given instant for
// a sport, or an empty not-found snapshot when the provider has no data
// there (HTTP 422). 429 responses honor the provider's Retry-After before
// retrying; network errors and 5xx retry after a fixed short delay; any
// other 4xx fails immediately. The loop is bounded — a 429 retry counts
// toward the same attempt budget as any other retry.
func (c *Client) FetchSnapshot(ctx context.Context, sportKey string, at time.Time, bookmakers []string) (Snapshot, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", "us")
	params.Set("markets", MarketKeySpreads+","+MarketKeyTotals)
	params.Set("oddsFormat", "american")
	params.Set("date", at.UTC().Format(time.RFC3339))
	for _, book := range bookmakers {
		params.Add("bookmakers", book)
	}

	endpoint := fmt.Sprintf("%s/v4/historical/sports/%s/odds?%s", c.baseURL, sportKey, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return Snapshot{}, err
		}

		snap, retryIn, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		if errors.Is(err, errNotRetryable) {
			return Snapshot{}, fmt.Errorf("snapshot fetch failed: %w", err)
		}
		if attempt == c.maxAttempts {
			break
		}

		delay := c.retryDelay
		if retryIn > 0 {
			delay = retryIn
		}
		log.Printf("[oddsapi] attempt %d/%d failed: %v (retrying in %v)", attempt, c.maxAttempts, err, delay)

		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	return Snapshot{}, fmt.Errorf("snapshot fetch failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// fetchOnce performs a single attempt. retryIn is non-zero only for 429
// responses carrying a usable Retry-After.
func (c *Client) fetchOnce(ctx context.Context, endpoint string) (snap Snapshot, retryIn time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, 0, fmt.Errorf("creating request: %w", err)
	}

	c.requestsUsed++

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, 0, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	c.recordBudget(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload snapshotResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return Snapshot{}, 0, fmt.Errorf("decoding response: %w", err)
		}
		return buildSnapshot(payload)

	case resp.StatusCode == http.StatusUnprocessableEntity:
		// No snapshot exists at this instant. Not an error.
		return Snapshot{Found: false}, 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		retryIn = c.retryAfter429
		if header := resp.Header.Get("Retry-After"); header != "" {
			if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
				retryIn = time.Duration(secs) * time.Second
			}
		}
		return Snapshot{}, retryIn, fmt.Errorf("rate limited (429)")

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Auth and request errors don't heal on retry; repeating them
		// only burns quota.
		return Snapshot{}, 0, fmt.Errorf("provider returned %d: %w", resp.StatusCode, errNotRetryable)

	default:
		return Snapshot{}, 0, fmt.Errorf("provider returned %d", resp.StatusCode)
	}
}

// errNotRetryable marks responses the provider will keep returning
// unchanged for this request.
var errNotRetryable = errors.New("not retryable")

func (c *Client) recordBudget(resp *http.Response) {
	if header := resp.Header.Get("x-requests-remaining"); header != "" {
		if remaining, err := strconv.ParseFloat(header, 64); err == nil {
			c.lastRemaining = int(remaining)
		}
	}
}

// RequestsUsed returns how many attempts this client has made, retries
// included — every attempt consumes external quota.
func (c *Client) RequestsUsed() int {
	return c.requestsUsed
}

// BudgetRemaining returns the provider's last reported remaining quota
func (c *Client) BudgetRemaining() int {
	return c.lastRemaining
}

func buildSnapshot(payload snapshotResponse) (Snapshot, time.Duration, error) {
	ts, err := time.Parse(time.RFC3339, payload.Timestamp)
	if err != nil {
		return Snapshot{}, 0, fmt.Errorf("parsing snapshot timestamp %q: %w", payload.Timestamp, err)
	}

	snap := Snapshot{
		Timestamp: ts,
		Events:    payload.Data,
		Found:     true,
	}

	if payload.PreviousTimestamp != nil {
		if prev, err := time.Parse(time.RFC3339, *payload.PreviousTimestamp); err == nil {
			snap.PreviousTimestamp = &prev
		}
	}
	if payload.NextTimestamp != nil {
		if next, err := time.Parse(time.RFC3339, *payload.NextTimestamp); err == nil {
			snap.NextTimestamp = &next
		}
	}

	return snap, 0, nil
}
