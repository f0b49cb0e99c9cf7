package api

import (
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/guard"
)

// The console is served as a single-page application in production; these
// handlers are the minimal server-rendered fallbacks so guard redirects
// always land on a real page.

func (s *Server) registerPages() {
	s.router.HandleFunc(guard.LoginPath, s.loginPage).Methods(http.MethodGet)
	s.router.HandleFunc(guard.UnauthorizedPath, s.unauthorizedPage).Methods(http.MethodGet)
	s.router.HandleFunc(guard.DashboardPath, s.dashboardPage).Methods(http.MethodGet)
	s.router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, guard.DashboardPath, http.StatusFound)
	}).Methods(http.MethodGet)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	target := "/api/auth/google/login"
	if next != "" {
		target += "?next=" + url.QueryEscape(next)
	}
	writePage(w, http.StatusOK, fmt.Sprintf(
		`<h1>NovaFlow Console</h1><p><a href=%q>Sign in with Google</a></p>`, target))
}

func (s *Server) unauthorizedPage(w http.ResponseWriter, r *http.Request) {
	writePage(w, http.StatusForbidden,
		`<h1>Access denied</h1><p>Your account is not authorized for this console. <a href="/login">Sign in</a> with a different account.</p>`)
}

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	profile := auth.CurrentUser(r.Context())
	if profile == nil {
		http.Redirect(w, r, guard.LoginPath, http.StatusFound)
		return
	}
	writePage(w, http.StatusOK, fmt.Sprintf(`<h1>NovaFlow Console</h1><p>Signed in as %s.</p>`, html.EscapeString(profile.Email)))
}

func writePage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!DOCTYPE html><html><body>%s</body></html>", body)
}
