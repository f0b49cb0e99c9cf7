package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/session"
)

// LoginPath is where unauthenticated navigation lands
const LoginPath = "/login"

// UnauthorizedPath is where authorization failures land
const UnauthorizedPath = "/unauthorized"

// DefaultPublicPrefixes are the paths the edge guard never gates
func DefaultPublicPrefixes() []string {
	return []string{
		LoginPath,
		UnauthorizedPath,
		"/static/",
		"/api/public/",
		"/api/auth/",
		"/healthz",
		"/readyz",
		"/metrics",
	}
}

// EdgeGuard is the first tier: cookie presence only
type EdgeGuard struct {
	cookies        *session.CookieWriter
	publicPrefixes []string
	metrics        *observability.Metrics
}

// NewEdgeGuard creates the edge tier. A nil prefixes slice uses the defaults;
// metrics may be nil.
func NewEdgeGuard(cookies *session.CookieWriter, publicPrefixes []string, metrics *observability.Metrics) *EdgeGuard {
	if publicPrefixes == nil {
		publicPrefixes = DefaultPublicPrefixes()
	}
	return &EdgeGuard{
		cookies:        cookies,
		publicPrefixes: publicPrefixes,
		metrics:        metrics,
	}
}

// IsPublic reports whether a path bypasses the guard
func (g *EdgeGuard) IsPublic(path string) bool {
	for _, prefix := range g.publicPrefixes {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Middleware wraps a handler with the edge check
func (g *EdgeGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if g.cookies.Read(r) == "" && r.Header.Get("Authorization") == "" {
			if g.metrics != nil {
				g.metrics.GuardRedirectsTotal.WithLabelValues("edge", LoginPath).Inc()
			}
			redirectToLogin(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// redirectToLogin preserves the original path as the return target
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath + "?next=" + url.QueryEscape(r.URL.Path)
	http.Redirect(w, r, target, http.StatusFound)
}
