// Package email sends transactional email through the Resend HTTP API.
// Sends are best-effort side operations: callers fire them outside any
// database transaction and only log failures.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// Sender defines the outbound email contract.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// resendClient implements Sender against the Resend API.
type resendClient struct {
	httpClient *http.Client
	apiKey     string
	from       string
}

// NewResendClient creates a Resend email sender. from is the display
// address, e.g. "BalanceBoard <onboarding@resend.dev>".
func NewResendClient(apiKey, from string) (Sender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	return &resendClient{
		apiKey: apiKey,
		from:   from,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one email.
func (c *resendClient) Send(ctx context.Context, to, subject, html string) error {
	jsonBody, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
