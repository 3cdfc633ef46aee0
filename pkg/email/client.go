package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrMissingRecipient is returned when a message has no To address
	ErrMissingRecipient = errors.New("email recipient is required")
	// ErrMissingBody is returned when a message has neither HTML nor text
	ErrMissingBody = errors.New("email html or text body is required")
)

// ProviderError is a non-2xx answer from the email provider
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider returned status %d: %s", e.StatusCode, e.Body)
}

// Sender sends transactional email
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Message is one outgoing email. From falls back to the client default.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Config holds configuration for the email provider
type Config struct {
	APIURL string
	APIKey string
	From   string
}

// Client posts messages to the provider's send endpoint
type Client struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

// NewClient creates a new email provider client
func NewClient(config Config) *Client {
	return &Client{
		apiURL: config.APIURL,
		apiKey: config.APIKey,
		from:   config.From,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send validates msg, posts it and returns the provider message id
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return "", ErrMissingRecipient
	}
	if strings.TrimSpace(msg.HTML) == "" && strings.TrimSpace(msg.Text) == "" {
		return "", ErrMissingBody
	}

	from := msg.From
	if from == "" {
		from = c.from
	}

	body, err := json.Marshal(sendRequest{
		From:    from,
		To:      to,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.ID, nil
}
