// Package clickup is the tracker API client: customer lists, tickets with
// their lifecycle status, and the full task record (comments, attachments,
// linked chat threads) used for analysis.
package clickup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.clickup.com/api/v2"

// Client talks to the tracker REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a tracker client. An empty baseURL selects the public
// endpoint; tests point it at a local server.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// get performs one GET call against the tracker API and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracker API returned status %d for %s: %s", resp.StatusCode, path, truncateBody(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}

// TestConnection verifies the API key by fetching the authorized user and
// returns the username.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	var resp struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := c.get(ctx, "/user", nil, &resp); err != nil {
		return "", err
	}
	log.Debug().Str("user", resp.User.Username).Msg("Tracker API connection verified")
	return resp.User.Username, nil
}

// parseMillis converts a millisecond-epoch string to a local time. Empty or
// malformed values return the zero time.
func parseMillis(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}

// formatMillis renders a millisecond-epoch string as "YYYY-MM-DD HH:MM".
func formatMillis(value string) string {
	t := parseMillis(value)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
