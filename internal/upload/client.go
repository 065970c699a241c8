package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/movecoach/internal/models"
)

// errPermanent marks responses that retrying cannot fix.
var errPermanent = errors.New("permanent failure")

// Client sends session results to the movecoach server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the movecoach server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		attempts: 3,
		backoff:  time.Second,
	}
}

// SendResult POSTs a session result to the server's results endpoint.
// Retries up to 3 times with exponential backoff on network errors and 5xx
// responses. Other client errors are returned immediately.
func (c *Client) SendResult(ctx context.Context, row models.SessionResult) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		lastErr = c.post(ctx, data)
		if lastErr == nil || errors.Is(lastErr, errPermanent) {
			return lastErr
		}
	}

	return fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) post(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serverURL+"/api/v1/results", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, body)
	default:
		return fmt.Errorf("%w: upload rejected (status %d): %s", errPermanent, resp.StatusCode, body)
	}
}
