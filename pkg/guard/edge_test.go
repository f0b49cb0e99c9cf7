package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaflow/console/pkg/session"
)

func newEdgeGuard() *EdgeGuard {
	return NewEdgeGuard(session.NewCookieWriter("novaflow_session", false), nil, nil)
}

func TestEdgeGuard_ProtectedPathWithoutCookieRedirects(t *testing.T) {
	g := newEdgeGuard()
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/domains", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fdomains", w.Header().Get("Location"))
}

func TestEdgeGuard_PublicPathsNeverRedirect(t *testing.T) {
	g := newEdgeGuard()

	publicPaths := []string{
		"/login",
		"/unauthorized",
		"/static/app.css",
		"/api/public/status",
		"/healthz",
		"/metrics",
	}

	for _, path := range publicPaths {
		t.Run(path, func(t *testing.T) {
			called := false
			handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			// No cookie at all.
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.True(t, called, "handler should be reached without a cookie")
			assert.Equal(t, http.StatusOK, w.Code)

			// And again with a cookie present.
			called = false
			req = httptest.NewRequest(http.MethodGet, path, nil)
			req.AddCookie(&http.Cookie{Name: "novaflow_session", Value: "anything"})
			w = httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.True(t, called, "handler should be reached with a cookie")
		})
	}
}

func TestEdgeGuard_CookiePresencePassesWithoutValidation(t *testing.T) {
	g := newEdgeGuard()
	called := false
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// The edge tier only proves presence; a garbage value must still pass.
	req := httptest.NewRequest(http.MethodGet, "/domains", nil)
	req.AddCookie(&http.Cookie{Name: "novaflow_session", Value: "not-a-real-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.True(t, called)
}

func TestEdgeGuard_BearerHeaderAlsoCounts(t *testing.T) {
	g := newEdgeGuard()
	called := false
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
}

func TestEdgeGuard_IsPublic(t *testing.T) {
	g := newEdgeGuard()

	assert.True(t, g.IsPublic("/login"))
	assert.True(t, g.IsPublic("/login/callback"))
	assert.True(t, g.IsPublic("/static/js/main.js"))
	assert.False(t, g.IsPublic("/domains"))
	assert.False(t, g.IsPublic("/loginx"))
	assert.False(t, g.IsPublic("/api/roles"))
}
