// Package klaviyo speaks the Klaviyo events API: it reshapes storefront
// events into the provider schema and performs the outbound call.
package klaviyo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Config holds the provider endpoint settings. They are passed in
// explicitly so tests can point the client at a local server.
type Config struct {
	Endpoint string
	Revision string
	Timeout  time.Duration
}

// Client sends events to the Klaviyo events API. One call per event, no
// retries; the caller owns failure handling.
type Client struct {
	httpClient *http.Client
	endpoint   string
	revision   string
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint,
		revision:   cfg.Revision,
		logger:     logger,
	}
}

// Send posts one event using the tenant's API key. A transport error or a
// non-2xx response is returned as an error carrying the status and the
// response body verbatim.
func (c *Client) Send(ctx context.Context, apiKey string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling klaviyo event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building klaviyo request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Klaviyo-API-Key "+apiKey)
	req.Header.Set("revision", c.revision)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending event to klaviyo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Capture the rejection body for the failure record (limit to 4KB)
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("klaviyo api error: %d - %s", resp.StatusCode, string(respBody))
}
