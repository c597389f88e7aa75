// Package notify posts reminder batches to the notification endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"remind/internal/logger"
	"remind/internal/reminder"
)

const maxResponseBody = 1 << 20

// Client submits reminder requests. It never retries.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client for endpoint. token, when set, is sent as a
// bearer token. A nil httpClient gets an otelhttp-instrumented default.
func NewClient(endpoint, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: httpClient,
		log:        logger.WithComponent("notify"),
	}
}

// Send posts req as JSON and decodes the endpoint's answer. A response is
// returned alongside a *SendError when the endpoint replied with a readable
// body.
func (c *Client) Send(ctx context.Context, req reminder.Request) (*reminder.Response, error) {
	const op = "Send"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug().
		Str("endpoint", c.endpoint).
		Int("items", len(req.Items)).
		Msg("Posting reminders")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to make request: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	var out reminder.Response
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("message", msg).
			Msg("Notification endpoint returned an error status")
		if decodeErr != nil {
			return nil, &SendError{StatusCode: resp.StatusCode, Message: msg}
		}
		return &out, &SendError{StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, decodeErr)
	}
	if !out.Success {
		return &out, &SendError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	return &out, nil
}
