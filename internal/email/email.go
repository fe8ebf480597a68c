package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/sendrec/reportvideo/internal/report"
)

var _ report.Notifier = (*Client)(nil)

// ErrRecipientNotAllowed is returned for recipients outside a configured
// allowlist, so the visitor is not told the report went out.
var ErrRecipientNotAllowed = errors.New("recipient not in allowlist")

type Config struct {
	BaseURL    string
	Username   string
	Password   string
	TemplateID int
	Allowlist  []string
	SMTP       SMTPConfig
}

type Client struct {
	config Config
	http   *http.Client
	smtp   smtpSender
}

func New(cfg Config) *Client {
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
		smtp:   newSMTPSender(cfg.SMTP),
	}
}

type txRequest struct {
	SubscriberEmail string            `json:"subscriber_email"`
	TemplateID      int               `json:"template_id"`
	FromEmail       string            `json:"from_email,omitempty"`
	Data            map[string]string `json:"data"`
	ContentType     string            `json:"content_type"`
}

// ParseAllowlist splits a comma-separated list of addresses or @domains.
func ParseAllowlist(s string) []string {
	var out []string
	for _, entry := range strings.Split(s, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func (c *Client) allowed(addr string) bool {
	if len(c.config.Allowlist) == 0 {
		return true
	}
	addr = strings.ToLower(strings.TrimSpace(addr))
	for _, entry := range c.config.Allowlist {
		if entry == addr || (strings.HasPrefix(entry, "@") && strings.HasSuffix(addr, entry)) {
			return true
		}
	}
	return false
}

// SendReport delivers one broken-video report. Listmonk takes precedence
// over SMTP; with neither configured the report is only logged.
func (c *Client) SendReport(ctx context.Context, n report.Notification) error {
	if !c.allowed(n.Recipient) {
		slog.Warn("email: recipient not in allowlist, skipping", "recipient", n.Recipient)
		return ErrRecipientNotAllowed
	}

	switch {
	case c.config.BaseURL != "":
		return c.sendListmonk(ctx, n)
	case c.smtp.configured():
		return c.smtp.send(n)
	default:
		slog.Info("email not configured, report logged only",
			"recipient", n.Recipient, "subject", n.Subject, "permalink", n.Permalink)
		return nil
	}
}

func (c *Client) sendListmonk(ctx context.Context, n report.Notification) error {
	if c.config.TemplateID == 0 {
		slog.Warn("email: listmonk template ID is 0, the default template will be used")
	}

	body := txRequest{
		SubscriberEmail: n.Recipient,
		TemplateID:      c.config.TemplateID,
		FromEmail:       fromAddress(n.From),
		Data: map[string]string{
			"subject":   n.Subject,
			"body":      n.Body,
			"permalink": n.Permalink,
			"siteName":  n.SiteName,
		},
		ContentType: "plain",
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/tx", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.config.Username, c.config.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send report email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listmonk returned status %d", resp.StatusCode)
	}

	return nil
}

// fromAddress turns a "From: Name <addr>" header line into an RFC 5322
// mailbox, quoting the display name as needed. It returns "" when no valid
// address can be found.
func fromAddress(header string) string {
	line, _, _ := strings.Cut(header, "\n")
	line = strings.TrimSpace(line)
	if len(line) >= 5 && strings.EqualFold(line[:5], "from:") {
		line = strings.TrimSpace(line[5:])
	}

	name, addr := "", line
	if open := strings.LastIndex(line, "<"); open >= 0 && strings.HasSuffix(line, ">") {
		name = strings.TrimSpace(line[:open])
		addr = strings.TrimSpace(line[open+1 : len(line)-1])
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return ""
	}
	return (&mail.Address{Name: name, Address: parsed.Address}).String()
}
