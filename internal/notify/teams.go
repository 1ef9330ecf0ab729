// Package notify builds and delivers the Teams and email notifications
// produced by the sync and completion jobs.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrWebhookNotConfigured is returned when no Teams webhook URL is set.
var ErrWebhookNotConfigured = errors.New("teams webhook url not configured")

// TeamsClient posts JSON payloads to a Teams incoming webhook.
type TeamsClient struct {
	webhookURL string
	client     *http.Client
}

// NewTeamsClient creates a client for the given webhook URL. An empty URL is
// allowed; Post then fails with ErrWebhookNotConfigured.
func NewTeamsClient(webhookURL string, timeout time.Duration) *TeamsClient {
	return &TeamsClient{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a webhook URL is set.
func (c *TeamsClient) Configured() bool {
	return c != nil && c.webhookURL != ""
}

// Post sends payload to the webhook. Any non-2xx answer is an error.
func (c *TeamsClient) Post(ctx context.Context, payload any) error {
	if !c.Configured() {
		return ErrWebhookNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling teams message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to teams webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("teams webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	return nil
}
