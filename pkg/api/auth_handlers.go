package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/novaflow/console/pkg/audit"
	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/guard"
	"github.com/novaflow/console/pkg/httputil"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/session"
)

const (
	stateCookie = "novaflow_oauth_state"
	nextCookie  = "novaflow_login_next"
)

// AuthHandlers serves the sign-in, sign-out and profile endpoints
type AuthHandlers struct {
	gateway *auth.Gateway
	cookies *session.CookieWriter
	logger  *observability.Logger
	metrics *observability.Metrics
	audit   audit.Recorder
	devMode bool
}

// NewAuthHandlers creates the auth endpoint handlers
func NewAuthHandlers(gateway *auth.Gateway, cookies *session.CookieWriter, logger *observability.Logger,
	metrics *observability.Metrics, recorder audit.Recorder, devMode bool) *AuthHandlers {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &AuthHandlers{
		gateway: gateway,
		cookies: cookies,
		logger:  logger,
		metrics: metrics,
		audit:   recorder,
		devMode: devMode,
	}
}

// RegisterRoutes mounts the auth endpoints. They live under /api/auth/, which
// the edge guard treats as public: a user signing in has no session yet.
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/auth/google/login", h.googleLogin).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/google/callback", h.googleCallback).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/signout", h.signOut).Methods(http.MethodPost)
	if h.devMode {
		router.HandleFunc("/api/auth/demo", h.demoSignIn).Methods(http.MethodPost)
	}
}

// googleLogin starts the OAuth flow. The anti-forgery state and the post-login
// destination travel in short-lived cookies.
func (h *AuthHandlers) googleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	authURL, err := h.gateway.AuthCodeURL(state)
	if err != nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "sign-in is not available")
		return
	}

	expiry := time.Now().Add(10 * time.Minute)
	http.SetCookie(w, &http.Cookie{
		Name: stateCookie, Value: state, Path: "/", Expires: expiry, HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	if next := r.URL.Query().Get("next"); next != "" && guard.ValidateRedirect(next) == nil {
		http.SetCookie(w, &http.Cookie{
			Name: nextCookie, Value: next, Path: "/", Expires: expiry, HttpOnly: true, SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// googleCallback completes the OAuth flow and establishes the session
func (h *AuthHandlers) googleCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || state.Value != r.URL.Query().Get("state") {
		h.observeSignIn("state_mismatch")
		httputil.WriteBadRequest(w, "sign-in state mismatch")
		return
	}
	clearCookie(w, stateCookie)

	code := r.URL.Query().Get("code")
	if code == "" {
		h.observeSignIn("missing_code")
		httputil.WriteBadRequest(w, "missing authorization code")
		return
	}

	sess, err := h.gateway.SignInWithGoogle(r.Context(), w, code)
	if err != nil {
		h.observeSignIn("failure")
		h.logger.WithError(err).Warn("google sign-in failed")
		http.Redirect(w, r, guard.UnauthorizedPath, http.StatusFound)
		return
	}

	h.observeSignIn("success")
	h.audit.Record(r.Context(), audit.Event{Type: audit.TypeLogin, Email: sess.Email})

	target := guard.DashboardPath
	if next, err := r.Cookie(nextCookie); err == nil && guard.ValidateRedirect(next.Value) == nil {
		target = next.Value
	}
	clearCookie(w, nextCookie)
	http.Redirect(w, r, target, http.StatusFound)
}

// demoSignIn is only mounted in dev mode
func (h *AuthHandlers) demoSignIn(w http.ResponseWriter, r *http.Request) {
	sess, err := h.gateway.DemoSignIn(r.Context(), w)
	if err != nil {
		httputil.WriteForbidden(w, err.Error())
		return
	}

	h.observeSignIn("demo")
	h.audit.Record(r.Context(), audit.Event{Type: audit.TypeLogin, Email: sess.Email})
	httputil.WriteSuccess(w, map[string]string{"email": sess.Email})
}

// signOut destroys the session. It is deliberately forgiving: whatever state
// the token is in, the cookie is gone afterwards.
func (h *AuthHandlers) signOut(w http.ResponseWriter, r *http.Request) {
	token := h.cookies.BearerToken(r)
	sessionID := ""
	email := ""
	if sess, err := h.gateway.ResolveSession(r.Context(), token); err == nil {
		sessionID = sess.ID
		email = sess.Email
	}

	h.gateway.SignOut(r.Context(), w, sessionID)
	if email != "" {
		h.audit.Record(r.Context(), audit.Event{Type: audit.TypeLogout, Email: email})
	}
	httputil.WriteSuccess(w, map[string]string{"status": "signed out"})
}

// profile serves the current user's profile. Mounted behind the session
// guard, so the profile is already on the context.
func (h *AuthHandlers) profile(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentUser(r.Context())
	if p == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	httputil.WriteSuccess(w, p)
}

func (h *AuthHandlers) observeSignIn(outcome string) {
	if h.metrics != nil {
		h.metrics.SignInsTotal.WithLabelValues(outcome).Inc()
	}
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
}
