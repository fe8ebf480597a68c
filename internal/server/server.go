package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sendrec/reportvideo/internal/content"
	"github.com/sendrec/reportvideo/internal/httputil"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Posts interface {
	FindPost(ctx context.Context, id int64) (*content.Post, error)
}

// Reporter renders the report-broken-video form and handles its submissions.
type Reporter interface {
	Render(ctx context.Context, post *content.Post, r *http.Request) template.HTML
	AppendButton(ctx context.Context, post *content.Post, r *http.Request, body template.HTML) template.HTML
}

type Config struct {
	Pinger                Pinger
	Posts                 Posts
	Report                Reporter
	SiteName              string
	BaseURL               string
	StorageEndpoint       string
	VideoBaseURL          string
	AllowedFrameAncestors string
}

type Server struct {
	router       chi.Router
	pinger       Pinger
	posts        Posts
	report       Reporter
	siteName     string
	baseURL      string
	videoBaseURL string
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:               cfg.BaseURL,
		StorageEndpoint:       cfg.StorageEndpoint,
		AllowedFrameAncestors: cfg.AllowedFrameAncestors,
	}))

	siteName := cfg.SiteName
	if siteName == "" {
		siteName = "Blog"
	}

	s := &Server{
		router:       r,
		pinger:       cfg.Pinger,
		posts:        cfg.Posts,
		report:       cfg.Report,
		siteName:     siteName,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		videoBaseURL: strings.TrimRight(cfg.VideoBaseURL, "/"),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	if s.posts == nil || s.report == nil {
		return
	}

	s.router.Route("/posts/{id}", func(r chi.Router) {
		r.Get("/", s.handlePostPage)
		r.Post("/", s.handlePostPage)
		r.Get("/feed", s.handlePostFeed)
		r.Get("/{slug}", s.handlePostPage)
		r.Post("/{slug}", s.handlePostPage)
	})
	s.router.Get("/fragments/report/{id}", s.handleFragment)
	s.router.Post("/fragments/report/{id}", s.handleFragment)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loadPost resolves the {id} URL parameter. It writes the error response
// itself and returns nil when the post cannot be served.
func (s *Server) loadPost(w http.ResponseWriter, r *http.Request) *content.Post {
	id, ok := parsePostID(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil
	}
	post, err := s.posts.FindPost(r.Context(), id)
	if errors.Is(err, content.ErrNotFound) {
		http.NotFound(w, r)
		return nil
	}
	if err != nil {
		logError(r, "failed to load post", err, "post_id", id)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil
	}
	return post
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	post := s.loadPost(w, r)
	if post == nil {
		return
	}
	httputil.WriteHTML(w, http.StatusOK, s.report.Render(r.Context(), post, r))
}
