package session

import (
	"net/http"
	"time"
)

// CookieWriter manages the session cookie consumed by the edge route guard.
// The cookie and the server-side record must be cleared together on sign-out.
type CookieWriter struct {
	name   string
	secure bool
}

// NewCookieWriter creates a cookie writer for the configured cookie name
func NewCookieWriter(name string, secure bool) *CookieWriter {
	return &CookieWriter{name: name, secure: secure}
}

// Name returns the session cookie name
func (c *CookieWriter) Name() string {
	return c.name
}

// Write sets the session cookie on the response
func (c *CookieWriter) Write(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the token carried by the session cookie, or "" when absent
func (c *CookieWriter) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Clear expires the session cookie
func (c *CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// BearerToken extracts the token for a request: Authorization header first,
// session cookie second. API clients and the browser share one session.
func (c *CookieWriter) BearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			return auth[len(prefix):]
		}
		return ""
	}
	return c.Read(r)
}
