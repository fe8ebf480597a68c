package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sendrec/reportvideo/internal/report"
)

const (
	maxResponseBodyBytes = 1024
	EventVideoReported   = "video.reported"
)

var _ report.Notifier = (*Client)(nil)

// Event represents a webhook event to dispatch.
type Event struct {
	Name      string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Client dispatches signed webhook events with short retries.
type Client struct {
	url         string
	secret      string
	http        *http.Client
	retryDelays []time.Duration
	now         func() time.Time
}

func New(url, secret string) *Client {
	return &Client{
		url:         url,
		secret:      secret,
		http:        &http.Client{Timeout: 10 * time.Second},
		retryDelays: []time.Duration{1 * time.Second, 4 * time.Second},
		now:         time.Now,
	}
}

// SignPayload computes HMAC-SHA256 of the payload using the secret.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// SendReport emits a video.reported event. Without a configured URL it does
// nothing.
func (c *Client) SendReport(ctx context.Context, n report.Notification) error {
	if c.url == "" {
		return nil
	}
	return c.Dispatch(ctx, Event{
		Name:      EventVideoReported,
		Timestamp: c.now().UTC(),
		Data: map[string]any{
			"postId":    n.PostID,
			"permalink": n.Permalink,
			"siteName":  n.SiteName,
			"subject":   n.Subject,
		},
	})
}

// Dispatch sends an event with up to 1+len(retryDelays) attempts.
func (c *Client) Dispatch(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	signature := SignPayload(c.secret, body)
	maxAttempts := 1 + len(c.retryDelays)
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		statusCode, respBody, err := c.doPost(ctx, body, signature)

		if err == nil && statusCode >= 200 && statusCode < 300 {
			slog.Info("webhook: delivered", "event", event.Name, "attempt", attempt, "status", statusCode)
			return nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("webhook returned status %d", statusCode)
		}
		slog.Warn("webhook: delivery attempt failed", "event", event.Name, "attempt", attempt, "response", respBody, "error", lastErr)

		if attempt < maxAttempts {
			select {
			case <-time.After(c.retryDelays[attempt-1]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

func (c *Client) doPost(ctx context.Context, body []byte, signature string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, readLimited(resp.Body), nil
}

func readLimited(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, int64(maxResponseBodyBytes)+1))
	s := string(b)
	if len(s) > maxResponseBodyBytes {
		s = s[:maxResponseBodyBytes]
	}
	return s
}
