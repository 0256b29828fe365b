package scoreboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	BaseURL         = "https://site.api.espn.com/apis/site/v2/sports"
	CollegeFootball = "football/college-football"
)

// Client fetches scoreboard JSON for final scores and schedule data.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a scoreboard client with a custom base URL
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchWeek fetches games for a specific season week
func (c *Client) FetchWeek(ctx context.Context, sportPath string, season, week int) (*Scoreboard, error) {
	url := fmt.Sprintf("%s/%s/scoreboard?groups=80&limit=400&dates=%d&seasontype=2&week=%d", c.baseURL, sportPath, season, week)
	return c.fetch(ctx, url)
}

func (c *Client) fetch(ctx context.Context, url string) (*Scoreboard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoreboard returned status %d", resp.StatusCode)
	}

	var board Scoreboard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("decoding scoreboard: %w", err)
	}
	return &board, nil
}
