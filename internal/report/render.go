package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sendrec/reportvideo/internal/content"
	"github.com/sendrec/reportvideo/internal/httputil"
	"github.com/sendrec/reportvideo/internal/i18n"
)

var formTemplate = template.Must(template.New("report-form").Parse(`<form method="post" action="{{.Action}}" class="{{.Prefix}}_form">
	<style{{if .Nonce}} nonce="{{.Nonce}}"{{end}}>#{{.HoneypotID}}{display:none}</style>
	<input id="{{.HoneypotID}}" name="{{.Prefix}}[{{.HoneypotField}}]" title="{{.HoneypotTitle}}" autocomplete="off" tabindex="-1">
	<input type="hidden" name="{{.Prefix}}[{{.TokenField}}]" value="{{.Token}}">
	<input type="hidden" name="{{.Prefix}}[post_id]" value="{{.PostID}}">
	<input type="submit" name="{{.Prefix}}[report]" value="{{.ButtonText}}">
</form>`))

var feedbackTemplate = template.Must(template.New("report-feedback").Parse(
	`<p class="{{.Prefix}}_result">{{.Message}}</p>`))

type formData struct {
	Action        string
	Prefix        string
	Nonce         string
	HoneypotID    string
	HoneypotField string
	HoneypotTitle string
	TokenField    string
	Token         string
	PostID        int64
	ButtonText    string
}

type feedbackData struct {
	Prefix  string
	Message string
}

// Render returns the report form for GET requests and the submission
// outcome for POST requests. Posts that are missing, of an ineligible type
// or vetoed by the ShowForm hook render nothing.
func (h *Handler) Render(ctx context.Context, post *content.Post, r *http.Request) template.HTML {
	if !h.eligible(post) {
		return ""
	}
	if r.Method != http.MethodPost {
		return h.form(post, r)
	}
	return h.handleSubmission(ctx, post, r)
}

// AppendButton is the content hook: it appends Render's output to body
// unless auto-append is off or the request is for a feed.
func (h *Handler) AppendButton(ctx context.Context, post *content.Post, r *http.Request, body template.HTML) template.HTML {
	if !h.autoAppend || isFeed(r) {
		return body
	}
	return body + h.Render(ctx, post, r)
}

func (h *Handler) form(post *content.Post, r *http.Request) template.HTML {
	tok, err := h.tokens.Issue(h.cfg.TokenSeed)
	if err != nil {
		slog.Error("report: failed to issue form token", "post_id", post.ID, "error", err)
		return ""
	}

	n := h.renders.Add(1) - 1
	lang := r.Header.Get("Accept-Language")

	return execute(formTemplate, formData{
		Action:        r.URL.RequestURI(),
		Prefix:        h.cfg.Prefix,
		Nonce:         httputil.NonceFromContext(r.Context()),
		HoneypotID:    fmt.Sprintf("%s_%d", h.cfg.HoneypotField, n),
		HoneypotField: h.cfg.HoneypotField,
		HoneypotTitle: h.tr.T(lang, i18n.MsgLeaveEmpty),
		TokenField:    h.cfg.TokenField,
		Token:         tok,
		PostID:        post.ID,
		ButtonText:    h.tr.T(lang, i18n.MsgReportButton),
	})
}

func (h *Handler) feedback(r *http.Request, key string) template.HTML {
	return execute(feedbackTemplate, feedbackData{
		Prefix:  h.cfg.Prefix,
		Message: h.tr.T(r.Header.Get("Accept-Language"), key),
	})
}

func execute(tmpl *template.Template, data any) template.HTML {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("report: failed to render template", "template", tmpl.Name(), "error", err)
		return ""
	}
	return template.HTML(buf.String())
}

func isFeed(r *http.Request) bool {
	if strings.HasSuffix(strings.TrimRight(r.URL.Path, "/"), "/feed") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/rss+xml") || strings.Contains(accept, "application/atom+xml")
}
