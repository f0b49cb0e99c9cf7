package rbac

import (
	"net/http"

	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/httputil"
	"github.com/novaflow/console/pkg/upstream"
)

// Require returns a middleware that gates a route on page permissions within
// the session's selected domain. It runs behind the session guard, so the
// profile and session are already on the context; their absence is treated as
// a denial.
func (c *Checker) Require(pagePath string, required []string, comb Combinator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := auth.CurrentUser(r.Context())
			sess := auth.CurrentSession(r.Context())
			if profile == nil || sess == nil {
				httputil.WriteForbidden(w, "access denied")
				return
			}
			if !c.Allowed(profile, sess.SelectedDomainID, pagePath, required, comb) {
				httputil.WriteForbidden(w, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ListGuard wraps an optional list load. An upstream access denial becomes an
// empty result so composite views render without the sub-resource; every
// other failure is surfaced.
func ListGuard[T any](items []T, err error) ([]T, error) {
	if err != nil {
		if upstream.IsAccessDenied(err) {
			return []T{}, nil
		}
		return nil, err
	}
	return items, nil
}
