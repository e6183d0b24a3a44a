package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mapwatch/internal/services"
)

// HTTPDoer describes the HTTP client used by the Helix client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StreamStatus is the liveness answer for one channel.
type StreamStatus struct {
	Login       string    `json:"login"`
	Live        bool      `json:"live"`
	GameName    string    `json:"game_name,omitempty"`
	Title       string    `json:"title,omitempty"`
	ViewerCount int       `json:"viewer_count,omitempty"`
	StartedAt   time.Time `json:"started_at,omitzero"`
}

// Playing reports whether the channel is live with a game name containing
// target, compared case-insensitively.
func (s StreamStatus) Playing(target string) bool {
	if !s.Live {
		return false
	}
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s.GameName), target)
}

// Oracle is the liveness collaborator consumed by the poller.
type Oracle interface {
	Stream(ctx context.Context, login string) (StreamStatus, error)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client (primarily for tests).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// Client queries the Helix API.
type Client struct {
	baseURL  string
	clientID string
	token    string
	timeout  time.Duration
	http     HTTPDoer
}

// New constructs a Helix client. timeout bounds each request; zero disables it.
func New(baseURL, clientID, token string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("twitch api base url required")
	}
	clientID = strings.TrimSpace(clientID)
	token = strings.TrimPrefix(strings.TrimSpace(token), "oauth:")
	if clientID == "" || token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "twitch", "new client", "client id and oauth token are required", nil)
	}
	c := &Client{
		baseURL:  baseURL,
		clientID: clientID,
		token:    token,
		timeout:  timeout,
		http:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type streamsResponse struct {
	Data []struct {
		UserLogin   string    `json:"user_login"`
		GameName    string    `json:"game_name"`
		Type        string    `json:"type"`
		Title       string    `json:"title"`
		ViewerCount int       `json:"viewer_count"`
		StartedAt   time.Time `json:"started_at"`
	} `json:"data"`
}

// Stream returns the current status of login. An empty data array means the
// channel is offline.
func (c *Client) Stream(ctx context.Context, login string) (StreamStatus, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return StreamStatus{}, services.Wrap(services.ErrValidation, "twitch", "streams", "login required", nil)
	}
	var payload streamsResponse
	if err := c.get(ctx, "/streams", url.Values{"user_login": {login}}, &payload); err != nil {
		return StreamStatus{Login: login}, err
	}
	status := StreamStatus{Login: login}
	for _, entry := range payload.Data {
		if entry.Type != "" && entry.Type != "live" {
			continue
		}
		status.Live = true
		status.GameName = entry.GameName
		status.Title = entry.Title
		status.ViewerCount = entry.ViewerCount
		status.StartedAt = entry.StartedAt
		break
	}
	return status, nil
}

// CheckCredentials performs a cheap authenticated request so startup can fail
// fast on a bad client id or token.
func (c *Client) CheckCredentials(ctx context.Context) error {
	var payload streamsResponse
	return c.get(ctx, "/streams", url.Values{"first": {"1"}}, &payload)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "twitch", "build request", path, err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "twitch", "request", path, err)
		}
		return services.Wrap(services.ErrTransient, "twitch", "request", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "twitch", "request",
			fmt.Sprintf("%s returned %d; check twitch.client_id and twitch.oauth_token", path, resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "twitch", "request", fmt.Sprintf("%s returned %d", path, resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrTransient, "twitch", "request",
			fmt.Sprintf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "twitch", "decode", path, err)
	}
	return nil
}
