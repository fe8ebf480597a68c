package diagnose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"github.com/sendrec/reportvideo/internal/content"
	"github.com/sendrec/reportvideo/internal/geoip"
	"github.com/sendrec/reportvideo/internal/storage"
)

type PostFinder interface {
	FindPost(ctx context.Context, id int64) (*content.Post, error)
}

type ObjectInspector interface {
	HeadObject(ctx context.Context, key string) (int64, string, error)
}

type Locator interface {
	Lookup(ip string) geoip.Location
}

// Diagnoser adds triage lines to a report. Any of its sources may be nil.
type Diagnoser struct {
	posts   PostFinder
	objects ObjectInspector
	geo     Locator
}

func New(posts PostFinder, objects ObjectInspector, geo Locator) *Diagnoser {
	return &Diagnoser{posts: posts, objects: objects, geo: geo}
}

func (d *Diagnoser) Describe(ctx context.Context, r *http.Request, postID int64) []string {
	var lines []string
	if line := browserLine(r.UserAgent()); line != "" {
		lines = append(lines, line)
	}
	if d.geo != nil {
		if loc := d.geo.Lookup(clientIP(r)).String(); loc != "" {
			lines = append(lines, "Location: "+loc)
		}
	}
	if line := d.videoLine(ctx, postID); line != "" {
		lines = append(lines, line)
	}
	return lines
}

func browserLine(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	browser := strings.TrimSpace(name + " " + version)
	if browser == "" {
		browser = "unknown"
	}
	switch {
	case ua.Bot():
		return fmt.Sprintf("Browser: %s (bot)", browser)
	case ua.OS() != "":
		kind := "desktop"
		if ua.Mobile() {
			kind = "mobile"
		}
		return fmt.Sprintf("Browser: %s on %s (%s)", browser, ua.OS(), kind)
	default:
		return "Browser: " + browser
	}
}

func (d *Diagnoser) videoLine(ctx context.Context, postID int64) string {
	if d.posts == nil || d.objects == nil {
		return ""
	}
	post, err := d.posts.FindPost(ctx, postID)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			slog.Warn("diagnose: failed to load post", "post_id", postID, "error", err)
		}
		return ""
	}
	if post.VideoKey == "" {
		return ""
	}

	size, contentType, err := d.objects.HeadObject(ctx, post.VideoKey)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return fmt.Sprintf("Video: %s is missing from storage", post.VideoKey)
	case err != nil:
		slog.Warn("diagnose: failed to inspect video object", "key", post.VideoKey, "error", err)
		return fmt.Sprintf("Video: %s could not be checked", post.VideoKey)
	}
	if contentType == "" {
		contentType = "unknown type"
	}
	return fmt.Sprintf("Video: %s (%d bytes, %s)", post.VideoKey, size, contentType)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
