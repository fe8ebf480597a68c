package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sendrec/reportvideo/internal/database"
	"github.com/sendrec/reportvideo/internal/report"
)

var _ report.Notifier = (*Client)(nil)

const webhookOption = "slack_webhook_url"

// Client posts report notifications to the Slack incoming webhook stored in
// site_options.
type Client struct {
	db   database.DBTX
	http *http.Client
}

func New(db database.DBTX) *Client {
	return &Client{
		db:   db,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Elements []text `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type payload struct {
	Blocks []block `json:"blocks"`
}

func (c *Client) lookupWebhookURL(ctx context.Context) (string, error) {
	var webhookURL string
	err := c.db.QueryRow(ctx,
		`SELECT value FROM site_options WHERE name = $1 AND value <> ''`,
		webhookOption,
	).Scan(&webhookURL)
	if err != nil {
		return "", err
	}
	return webhookURL, nil
}

func (c *Client) postMessage(ctx context.Context, webhookURL string, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}

// SendReport is a no-op when no webhook is configured.
func (c *Client) SendReport(ctx context.Context, n report.Notification) error {
	webhookURL, err := c.lookupWebhookURL(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("lookup slack webhook: %w", err)
	}

	p := payload{
		Blocks: []block{
			{
				Type: "section",
				Text: &text{
					Type: "mrkdwn",
					Text: fmt.Sprintf(":warning: *%s*\n<%s|Post #%d>", n.Subject, n.Permalink, n.PostID),
				},
			},
			{
				Type: "context",
				Elements: []text{
					{Type: "mrkdwn", Text: n.Body},
				},
			},
		},
	}

	if err := c.postMessage(ctx, webhookURL, p); err != nil {
		slog.Error("slack: failed to send report notification", "post_id", n.PostID, "error", err)
		return err
	}
	return nil
}
