package guard

import (
	"context"
	"net/http"
	"strings"

	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/contextkeys"
	"github.com/novaflow/console/pkg/httputil"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/session"
)

// DomainResolver establishes a session's effective domain when no selection
// has been made yet.
type DomainResolver interface {
	Resolve(ctx context.Context, sess *session.Session, profile *auth.UserProfile) (auth.UserDomain, error)
}

// ProfileObserver is handed every fresh profile so cached permission
// decisions can be dropped when grants changed upstream.
type ProfileObserver interface {
	Refresh(profile *auth.UserProfile)
}

// SessionGuard is the second tier: token validity and the profile authority
// check. It only runs on routes the edge tier let through.
type SessionGuard struct {
	gateway     *auth.Gateway
	cookies     *session.CookieWriter
	edge        *EdgeGuard
	domains     DomainResolver
	permissions ProfileObserver
	metrics     *observability.Metrics
}

// NewSessionGuard creates the session tier. domains and permissions may be
// nil, which skips default domain resolution and cache refresh respectively.
func NewSessionGuard(gateway *auth.Gateway, cookies *session.CookieWriter, edge *EdgeGuard,
	domains DomainResolver, permissions ProfileObserver, metrics *observability.Metrics) *SessionGuard {
	return &SessionGuard{
		gateway:     gateway,
		cookies:     cookies,
		edge:        edge,
		domains:     domains,
		permissions: permissions,
		metrics:     metrics,
	}
}

// Middleware wraps a handler with session validation. Browser navigation gets
// redirects; API paths get JSON status responses.
func (g *SessionGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.edge.IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()

		token := g.cookies.BearerToken(r)
		if token == "" {
			g.reject(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		sess, err := g.gateway.ResolveSession(ctx, token)
		if err != nil {
			// Malformed or orphaned token: fail closed, clear what is left.
			g.gateway.SignOut(ctx, w, "")
			g.reject(w, r, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		profile, err := g.gateway.FetchProfile(ctx, sess)
		if err != nil {
			// The profile fetch is the authority check. Whatever the cause,
			// the session is no longer trustworthy.
			g.gateway.SignOut(ctx, w, sess.ID)
			g.reject(w, r, http.StatusUnauthorized, "session is no longer valid")
			return
		}

		if g.permissions != nil {
			g.permissions.Refresh(profile)
		}

		// A fresh session has no selection yet; permission checks need an
		// effective domain before the first explicit switch.
		if sess.SelectedDomainID == 0 && g.domains != nil {
			if _, err := g.domains.Resolve(ctx, sess, profile); err != nil {
				httputil.WriteErrorMessage(w, http.StatusInternalServerError, "failed to resolve domain context")
				return
			}
		}

		ctx = contextkeys.WithSession(ctx, sess)
		ctx = contextkeys.WithProfile(ctx, profile)
		ctx = observability.WithUser(ctx, profile.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reject redirects browsers to login and answers API calls with JSON
func (g *SessionGuard) reject(w http.ResponseWriter, r *http.Request, status int, message string) {
	if g.metrics != nil {
		g.metrics.GuardRedirectsTotal.WithLabelValues("session", LoginPath).Inc()
	}
	if isAPIRequest(r) {
		httputil.WriteErrorMessage(w, status, message)
		return
	}
	redirectToLogin(w, r)
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
