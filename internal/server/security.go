package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sendrec/reportvideo/internal/httputil"
)

type SecurityConfig struct {
	BaseURL               string
	StorageEndpoint       string
	AllowedFrameAncestors string
}

func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := cfg.BaseURL != "" && hasHTTPS(cfg.BaseURL)

	storageSuffix := ""
	if cfg.StorageEndpoint != "" {
		storageSuffix = " " + cfg.StorageEndpoint
	}

	frameAncestors := "'self'"
	if ancestors := strings.TrimSpace(cfg.AllowedFrameAncestors); ancestors != "" {
		frameAncestors += " " + ancestors
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce := httputil.GenerateNonce()
			ctx := httputil.ContextWithNonce(r.Context(), nonce)

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// The report form posts back to the page it was rendered on.
			csp := fmt.Sprintf(
				"default-src 'self'; img-src 'self' data:%s; media-src 'self'%s; script-src 'self'; style-src 'self' 'nonce-%s'; form-action 'self'; frame-ancestors %s;",
				storageSuffix, storageSuffix, nonce, frameAncestors,
			)
			w.Header().Set("Content-Security-Policy", csp)

			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasHTTPS(baseURL string) bool {
	return strings.HasPrefix(baseURL, "https://")
}
