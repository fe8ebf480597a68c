package server

import (
	"bytes"
	"encoding/xml"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sendrec/reportvideo/internal/content"
	"github.com/sendrec/reportvideo/internal/httputil"
)

var postPageTemplate = template.Must(template.New("post").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}} · {{.SiteName}}</title>
    <meta property="og:title" content="{{.Title}}">
    <meta property="og:site_name" content="{{.SiteName}}">
    <link rel="canonical" href="{{.Permalink}}">
    <link rel="alternate" type="application/rss+xml" href="{{.FeedURL}}">
    <style{{if .Nonce}} nonce="{{.Nonce}}"{{end}}>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            color: #1e293b;
            max-width: 760px;
            margin: 0 auto;
            padding: 2rem 1rem;
        }
        video { width: 100%; border-radius: 8px; background: #000; }
        h1 { font-size: 1.75rem; margin-bottom: 1rem; }
        .entry p { line-height: 1.6; }
        .rbv_result { padding: 0.75rem; background: #f1f5f9; border-radius: 6px; }
    </style>
</head>
<body>
    <article>
        <h1>{{.Title}}</h1>
        {{if .VideoURL}}<video controls preload="metadata" src="{{.VideoURL}}"></video>{{end}}
        <div class="entry">{{.Content}}</div>
    </article>
</body>
</html>`))

var entryTemplate = template.Must(template.New("entry").Parse(`{{range .}}<p>{{.}}</p>
{{end}}`))

type postPageData struct {
	Title     string
	SiteName  string
	Permalink string
	FeedURL   string
	Nonce     string
	VideoURL  string
	Content   template.HTML
}

func (s *Server) handlePostPage(w http.ResponseWriter, r *http.Request) {
	post := s.loadPost(w, r)
	if post == nil {
		return
	}

	if slug := chi.URLParam(r, "slug"); r.Method == http.MethodGet && post.Slug != "" && slug != post.Slug {
		http.Redirect(w, r, content.PostURL("", post.ID, post.Slug), http.StatusMovedPermanently)
		return
	}

	body := s.report.AppendButton(r.Context(), post, r, renderEntry(post.Body))

	var buf bytes.Buffer
	if err := postPageTemplate.Execute(&buf, postPageData{
		Title:     post.Title,
		SiteName:  s.siteName,
		Permalink: content.PostURL(s.baseURL, post.ID, post.Slug),
		FeedURL:   content.PostURL("", post.ID, "") + "/feed",
		Nonce:     httputil.NonceFromContext(r.Context()),
		VideoURL:  s.videoURL(post.VideoKey),
		Content:   body,
	}); err != nil {
		logError(r, "failed to render post page", err, "post_id", post.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	httputil.WriteHTML(w, http.StatusOK, template.HTML(buf.String()))
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Link  string    `xml:"link"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
}

// handlePostFeed serves a single-item RSS feed. The report form is never
// part of feed output.
func (s *Server) handlePostFeed(w http.ResponseWriter, r *http.Request) {
	post := s.loadPost(w, r)
	if post == nil {
		return
	}

	link := content.PostURL(s.baseURL, post.ID, post.Slug)
	description := s.report.AppendButton(r.Context(), post, r, renderEntry(post.Body))

	out, err := xml.MarshalIndent(rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title: s.siteName,
			Link:  s.baseURL + "/",
			Items: []rssItem{{
				Title:       post.Title,
				Link:        link,
				GUID:        link,
				Description: string(description),
			}},
		},
	}, "", "  ")
	if err != nil {
		logError(r, "failed to encode feed", err, "post_id", post.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

func renderEntry(body string) template.HTML {
	var paragraphs []string
	for _, p := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, paragraphs); err != nil {
		slog.Error("failed to render entry", "error", err)
		return ""
	}
	return template.HTML(buf.String())
}

func (s *Server) videoURL(key string) string {
	if key == "" || s.videoBaseURL == "" {
		return ""
	}
	return s.videoBaseURL + "/" + strings.TrimLeft(key, "/")
}

func parsePostID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func logError(r *http.Request, msg string, err error, args ...any) {
	slog.ErrorContext(r.Context(), msg, append([]any{"path", r.URL.Path, "error", err}, args...)...)
}
