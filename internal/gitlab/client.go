// Package gitlab fetches commit evidence from the GitLab REST API.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://gitlab.com"
	perPage        = 100
	requestTimeout = 30 * time.Second
)

// Client handles GitLab API access
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Commit is one commit as reported by the GitLab commits API.
type Commit struct {
	ID            string    `json:"id"`
	ShortID       string    `json:"short_id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	AuthorName    string    `json:"author_name"`
	AuthorEmail   string    `json:"author_email"`
	AuthoredDate  time.Time `json:"authored_date"`
	CommittedDate time.Time `json:"committed_date"`
	WebURL        string    `json:"web_url"`
	Stats         Stats     `json:"stats"`
}

// Stats are the diff totals GitLab attaches with with_stats=true.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewClient creates a GitLab client. An empty baseURL targets gitlab.com.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// ListCommits returns a project's commits in [since, until], following
// pagination. project may be a numeric ID or a URL-encoded path.
func (c *Client) ListCommits(ctx context.Context, project string, since, until time.Time) ([]Commit, error) {
	if c.token == "" {
		return nil, fmt.Errorf("gitlab token not set")
	}

	var all []Commit
	for page := 1; ; page++ {
		commits, err := c.listPage(ctx, project, since, until, page)
		if err != nil {
			return nil, err
		}
		all = append(all, commits...)
		if len(commits) < perPage {
			return all, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, project string, since, until time.Time, page int) ([]Commit, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/repository/commits",
		c.baseURL, url.PathEscape(project))

	query := url.Values{}
	query.Set("with_stats", "true")
	query.Set("since", since.Format(time.RFC3339))
	query.Set("until", until.Format(time.RFC3339))
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))

	// Transport failures surface to the caller; retry cadence is the
	// orchestrator's concern, not the client's.
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("gitlab API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("gitlab API error (%d)", resp.StatusCode)
	}

	var commits []Commit
	if err := json.Unmarshal(body, &commits); err != nil {
		return nil, fmt.Errorf("failed to parse commits: %w", err)
	}
	return commits, nil
}
