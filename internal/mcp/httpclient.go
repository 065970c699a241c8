package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/storage"
)

// HTTPClient implements DataSource by calling the MoveCoach REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// results live on the remote server. The server resolves the user from
// the connection, so the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QuerySessionResults(ctx context.Context, _ int, start, end time.Time, exerciseKey string) ([]models.SessionResult, error) {
	params := timeParams(start, end)
	if exerciseKey != "" {
		params.Set("exercise", exerciseKey)
	}

	var results []models.SessionResult
	if err := c.get(ctx, "/api/v1/results", params, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *HTTPClient) GetExerciseStats(ctx context.Context, _ int, start, end time.Time) ([]storage.ExerciseStat, error) {
	var stats []storage.ExerciseStat
	if err := c.get(ctx, "/api/v1/results/stats", timeParams(start, end), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
