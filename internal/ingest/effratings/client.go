package effratings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL serves the public per-play efficiency ratings table
	DefaultBaseURL = "https://www.bcftoys.com/2023-fei"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent hammering the ratings site
	MinRequestInterval = 2 * time.Second
)

// Client fetches the efficiency ratings page with simple rate limiting.
// The page is static HTML so a plain GET is enough.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	lastRequest time.Time
	interval    time.Duration
}

// NewClient creates a new efficiency ratings client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		interval:   MinRequestInterval,
	}
}

// FetchRatingsPage fetches the raw HTML of the ratings table
func (c *Client) FetchRatingsPage(ctx context.Context) (string, error) {
	if elapsed := time.Since(c.lastRequest); elapsed < c.interval {
		select {
		case <-time.After(c.interval - elapsed):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.lastRequest = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch ratings page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ratings page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ratings page: %w", err)
	}
	return string(body), nil
}
