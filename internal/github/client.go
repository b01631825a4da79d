// Package github is a thin client for the public GitHub API, used to
// list a profile's repositories. The listing is passed through to API
// clients as-is; any upstream failure is reported as a not-found.
package github

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
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 10 * time.Second
	reposPerPage   = 5
)

// ErrNoProfile is returned when GitHub has no repositories for the
// username, or the upstream call failed for any other reason.
var ErrNoProfile = errors.New("no github profile found")

// Client calls the GitHub API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient constructs a Client. The token is optional; when set it is
// sent as a bearer credential to lift the unauthenticated rate limit.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// NewClientWithBaseURL is NewClient with an overridable API endpoint,
// used by tests.
func NewClientWithBaseURL(token, baseURL string) *Client {
	client := NewClient(token)
	client.baseURL = strings.TrimRight(baseURL, "/")
	return client
}

// ListRepos fetches the five most recently created public repositories
// of the given user. The response body is returned undecoded; the API
// contract is a passthrough of GitHub's own repo listing.
func (c *Client) ListRepos(ctx context.Context, username string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=%d&sort=created:asc",
		c.baseURL, url.PathEscape(username), reposPerPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "devconnect-apiserver")
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ErrNoProfile
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNoProfile
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, ErrNoProfile
	}
	return json.RawMessage(body), nil
}
