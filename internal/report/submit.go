package report

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sendrec/reportvideo/internal/content"
	"github.com/sendrec/reportvideo/internal/i18n"
	"github.com/sendrec/reportvideo/internal/validate"
)

// Submission is the namespaced part of a POST body. It lives only for the
// duration of one request.
type Submission struct {
	PostID   int64
	Token    string
	Honeypot string
}

// handleSubmission sends a report for a valid submission and otherwise
// renders the plain form again. Rejections are deliberately
// indistinguishable from a GET so bots learn nothing about which check
// failed.
func (h *Handler) handleSubmission(ctx context.Context, post *content.Post, r *http.Request) template.HTML {
	sub, reason := h.parseSubmission(r)
	if reason != "" {
		slog.Debug("report: submission ignored", "post_id", post.ID, "reason", reason)
		return h.form(post, r)
	}

	n, err := h.buildNotification(ctx, r, sub)
	if err != nil {
		slog.Error("report: failed to build notification", "post_id", sub.PostID, "error", err)
		return h.feedback(r, i18n.MsgReportFailure)
	}

	if err := h.notifier.SendReport(ctx, n); err != nil {
		slog.Error("report: failed to send notification", "post_id", sub.PostID, "recipient", n.Recipient, "error", err)
		return h.feedback(r, i18n.MsgReportFailure)
	}

	slog.Info("report: broken video reported", "post_id", sub.PostID)
	return h.feedback(r, i18n.MsgReportSuccess)
}

func (h *Handler) parseSubmission(r *http.Request) (Submission, string) {
	if err := r.ParseForm(); err != nil {
		return Submission{}, "unparsable form"
	}

	open := h.cfg.Prefix + "["
	fields := make(map[string][]string)
	var joined strings.Builder
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, open) || !strings.HasSuffix(key, "]") || len(values) == 0 {
			continue
		}
		fields[key[len(open):len(key)-1]] = values
		for _, v := range values {
			joined.WriteString(v)
		}
	}
	if len(fields) == 0 || strings.TrimSpace(joined.String()) == "" {
		return Submission{}, "empty payload"
	}
	for name, values := range fields {
		for _, value := range values {
			if msg := validate.ReportField(value); msg != "" {
				return Submission{}, name + ": " + msg
			}
		}
	}

	// Repeated keys resolve to their last value; the honeypot counts as
	// filled if any of its values is non-empty.
	sub := Submission{
		Token:    last(fields[h.cfg.TokenField]),
		Honeypot: strings.Join(fields[h.cfg.HoneypotField], ""),
	}
	if !h.tokens.Verify(sub.Token, h.cfg.TokenSeed) {
		return Submission{}, "invalid token"
	}
	if sub.Honeypot != "" {
		return Submission{}, "honeypot filled"
	}
	id, err := strconv.ParseInt(strings.TrimSpace(last(fields[postIDField])), 10, 64)
	if err != nil || id == 0 {
		return Submission{}, "missing post id"
	}
	sub.PostID = id
	return sub, ""
}

func (h *Handler) buildNotification(ctx context.Context, r *http.Request, sub Submission) (Notification, error) {
	permalink, err := h.site.Permalink(ctx, sub.PostID)
	if err != nil {
		return Notification{}, fmt.Errorf("resolve permalink: %w", err)
	}

	siteName := h.option(ctx, optionSiteName, h.cfg.SiteName)
	recipient := h.option(ctx, optionAdminEmail, h.cfg.AdminEmail)
	if h.cfg.Hooks.Recipient != nil {
		recipient = h.cfg.Hooks.Recipient(recipient)
	}
	if recipient == "" {
		return Notification{}, fmt.Errorf("no recipient configured")
	}

	from := fmt.Sprintf("From: [%s] %s <%s>", h.cfg.FromTag, headerSafe(siteName), headerSafe(recipient))
	if h.cfg.Hooks.From != nil {
		from = h.cfg.Hooks.From(from)
	}

	body := h.tr.T(h.cfg.SiteLanguage, i18n.MsgMailBody, permalink)
	if h.enricher != nil {
		if lines := h.enricher.Describe(ctx, r, sub.PostID); len(lines) > 0 {
			body += "\n\n" + strings.Join(lines, "\n")
		}
	}

	return Notification{
		Recipient: recipient,
		Subject:   h.tr.T(h.cfg.SiteLanguage, i18n.MsgMailSubject, siteName),
		Body:      body,
		From:      from,
		PostID:    sub.PostID,
		Permalink: permalink,
		SiteName:  siteName,
	}, nil
}

func (h *Handler) option(ctx context.Context, name, fallback string) string {
	if h.site == nil {
		return fallback
	}
	value, err := h.site.Option(ctx, name)
	if err != nil {
		slog.Warn("report: option lookup failed", "option", name, "error", err)
		return fallback
	}
	if value == "" {
		return fallback
	}
	return value
}

func last(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
