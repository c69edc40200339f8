// Package slack is the chat API client: it resolves archive permalinks to
// thread replies and turns them into the cleaned messages, media and code
// snippets used for analysis.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://slack.com/api"

// Client talks to the chat Web API. Usernames are cached per client since
// the same handful of people appears across every thread of a report run.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	userCache  map[string]string
}

// NewClient creates a chat client. An empty baseURL selects the public
// endpoint; tests point it at a local server.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userCache: make(map[string]string),
	}
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// call performs one Web API method call and decodes the response into out
// after checking the ok envelope.
func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat API returned status %d for %s", resp.StatusCode, method)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("chat API error from %s: %s", method, envelope.Error)
	}

	return json.Unmarshal(body, out)
}

// TestConnection verifies the bot token and returns the bot user name.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	var resp struct {
		User string `json:"user"`
		Team string `json:"team"`
	}
	if err := c.call(ctx, "auth.test", nil, &resp); err != nil {
		return "", err
	}
	log.Debug().Str("bot", resp.User).Str("team", resp.Team).Msg("Chat API connection verified")
	return resp.User, nil
}

// username resolves a user ID to a display name, caching the result. A
// lookup failure yields a stable placeholder derived from the ID.
func (c *Client) username(ctx context.Context, userID string) string {
	if userID == "" {
		return "Unknown"
	}
	if name, ok := c.userCache[userID]; ok {
		return name
	}

	var resp struct {
		User struct {
			RealName string `json:"real_name"`
			Name     string `json:"name"`
		} `json:"user"`
	}
	if err := c.call(ctx, "users.info", url.Values{"user": {userID}}, &resp); err != nil {
		suffix := userID
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
		return "User_" + suffix
	}

	name := resp.User.RealName
	if name == "" {
		name = resp.User.Name
	}
	if name == "" {
		name = "Unknown"
	}
	c.userCache[userID] = name
	return name
}
