package report

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/sendrec/reportvideo/internal/content"
)

const (
	DefaultPrefix        = "rbv"
	DefaultHoneypotField = "no_fill"
	DefaultTokenField    = "rbv_nonce"
	DefaultTokenSeed     = "report-broken-video"
	DefaultFromTag       = "RBV"
	DefaultPostType      = "post"

	postIDField = "post_id"

	optionAdminEmail = "admin_email"
	optionSiteName   = "blogname"
)

// TokenIssuer mints and checks the request token carried by the form.
type TokenIssuer interface {
	Issue(seed string) (string, error)
	Verify(token, seed string) bool
}

// Translator returns the translation of key for the given Accept-Language
// value, formatted with args.
type Translator interface {
	T(acceptLanguage, key string, args ...any) string
}

// Site resolves permalinks and site-wide options.
type Site interface {
	Permalink(ctx context.Context, id int64) (string, error)
	Option(ctx context.Context, name string) (string, error)
}

// Notifier delivers an accepted report. A non-nil error makes the visitor
// see the apology instead of the thank-you message.
type Notifier interface {
	SendReport(ctx context.Context, n Notification) error
}

// Enricher contributes extra lines to the report body.
type Enricher interface {
	Describe(ctx context.Context, r *http.Request, postID int64) []string
}

// Notification is the message handed to the notifier for one accepted report.
type Notification struct {
	Recipient string
	Subject   string
	Body      string
	From      string
	PostID    int64
	Permalink string
	SiteName  string
}

// Hooks are optional overrides. A nil hook keeps the default.
type Hooks struct {
	PostTypes  func(types []string) []string
	ShowForm   func(post *content.Post) bool
	Recipient  func(recipient string) string
	From       func(from string) string
	AutoAppend func(enabled bool) bool
}

// Config is fixed when the handler is built. Start from DefaultConfig; a
// zero Config has auto-append off.
type Config struct {
	PostTypes     []string
	AutoAppend    bool
	Prefix        string
	HoneypotField string
	TokenField    string
	TokenSeed     string
	FromTag       string
	SiteName      string
	AdminEmail    string
	// SiteLanguage selects the language of the outgoing message; form and
	// feedback follow the visitor's Accept-Language instead.
	SiteLanguage string
	Hooks        Hooks
}

// DefaultConfig returns the stock settings: posts only, auto-append on and
// the rbv field prefix.
func DefaultConfig() Config {
	return Config{
		PostTypes:     []string{DefaultPostType},
		AutoAppend:    true,
		Prefix:        DefaultPrefix,
		HoneypotField: DefaultHoneypotField,
		TokenField:    DefaultTokenField,
		TokenSeed:     DefaultTokenSeed,
		FromTag:       DefaultFromTag,
		SiteLanguage:  "en",
	}
}

// Handler renders the report form and processes its submissions. It is
// safe for concurrent use.
type Handler struct {
	cfg        Config
	postTypes  map[string]bool
	autoAppend bool
	tokens     TokenIssuer
	tr         Translator
	site       Site
	notifier   Notifier
	enricher   Enricher

	// renders numbers honeypot ids so several forms on one page stay unique.
	renders atomic.Uint64
}

// New fills unset Config fields from DefaultConfig and applies the
// PostTypes and AutoAppend hooks once.
func New(cfg Config, tokens TokenIssuer, tr Translator, site Site, notifier Notifier) *Handler {
	defaults := DefaultConfig()
	if len(cfg.PostTypes) == 0 {
		cfg.PostTypes = defaults.PostTypes
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaults.Prefix
	}
	if cfg.HoneypotField == "" {
		cfg.HoneypotField = defaults.HoneypotField
	}
	if cfg.TokenField == "" {
		cfg.TokenField = defaults.TokenField
	}
	if cfg.TokenSeed == "" {
		cfg.TokenSeed = defaults.TokenSeed
	}
	if cfg.FromTag == "" {
		cfg.FromTag = defaults.FromTag
	}
	if cfg.SiteLanguage == "" {
		cfg.SiteLanguage = defaults.SiteLanguage
	}

	types := cfg.PostTypes
	if cfg.Hooks.PostTypes != nil {
		types = cfg.Hooks.PostTypes(types)
	}
	postTypes := make(map[string]bool, len(types))
	for _, t := range types {
		postTypes[t] = true
	}

	autoAppend := cfg.AutoAppend
	if cfg.Hooks.AutoAppend != nil {
		autoAppend = cfg.Hooks.AutoAppend(autoAppend)
	}

	return &Handler{
		cfg:        cfg,
		postTypes:  postTypes,
		autoAppend: autoAppend,
		tokens:     tokens,
		tr:         tr,
		site:       site,
		notifier:   notifier,
	}
}

// SetEnricher must be called before the handler serves requests.
func (h *Handler) SetEnricher(e Enricher) {
	h.enricher = e
}

func (h *Handler) AutoAppend() bool {
	return h.autoAppend
}

func (h *Handler) eligible(post *content.Post) bool {
	if post == nil || !h.postTypes[post.Type] {
		return false
	}
	if h.cfg.Hooks.ShowForm != nil && !h.cfg.Hooks.ShowForm(post) {
		return false
	}
	return true
}
