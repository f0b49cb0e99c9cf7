package guard

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/domains"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/rbac"
	"github.com/novaflow/console/pkg/session"
	"github.com/novaflow/console/pkg/upstream"
)

type stubPlatform struct {
	profile    *auth.UserProfile
	profileErr error
}

func (s *stubPlatform) ExchangeIdentity(ctx context.Context, idToken string) (string, error) {
	return "stub-token", nil
}

func (s *stubPlatform) FetchProfile(ctx context.Context, token string) (*auth.UserProfile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.profile, nil
}

type guardFixture struct {
	guard   *SessionGuard
	gateway *auth.Gateway
	store   *session.MemoryStore
	cookies *session.CookieWriter
	checker *rbac.Checker
}

func newGuardFixture(t *testing.T, platform auth.PlatformAPI) *guardFixture {
	t.Helper()
	minter, err := session.NewMinter("test-secret", time.Hour)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	cookies := session.NewCookieWriter("novaflow_session", false)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	gateway := auth.NewGateway(nil, platform, minter, store, cookies, logger, true)
	edge := NewEdgeGuard(cookies, nil, nil)
	checker, err := rbac.NewChecker(0, nil)
	require.NoError(t, err)
	resolver := domains.NewService(store, domains.NewBus(), logger, nil)

	return &guardFixture{
		guard:   NewSessionGuard(gateway, cookies, edge, resolver, checker, nil),
		gateway: gateway,
		store:   store,
		cookies: cookies,
		checker: checker,
	}
}

// signIn establishes a demo session and returns its bearer token.
func (f *guardFixture) signIn(t *testing.T) (*session.Session, string) {
	t.Helper()
	w := httptest.NewRecorder()
	sess, err := f.gateway.DemoSignIn(context.Background(), w)
	require.NoError(t, err)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return sess, cookies[0].Value
}

func TestSessionGuard_ValidSessionReachesHandler(t *testing.T) {
	platform := &stubPlatform{profile: &auth.UserProfile{
		Email:   auth.DemoEmail,
		Domains: []auth.UserDomain{{ID: 1, Code: "ADMIN", Name: "Administration"}},
	}}
	f := newGuardFixture(t, platform)
	sess, token := f.signIn(t)

	var gotSession *session.Session
	var gotProfile *auth.UserProfile
	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = auth.CurrentSession(r.Context())
		gotProfile = auth.CurrentUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/domains", nil)
	req.AddCookie(&http.Cookie{Name: "novaflow_session", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.NotNil(t, gotSession)
	require.NotNil(t, gotProfile)
	assert.Equal(t, sess.ID, gotSession.ID)
	assert.Equal(t, auth.DemoEmail, gotProfile.Email)
}

func TestSessionGuard_MissingTokenRedirectsBrowser(t *testing.T) {
	f := newGuardFixture(t, &stubPlatform{})
	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/domains", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fdomains", w.Header().Get("Location"))
}

func TestSessionGuard_MissingTokenRejectsAPIWithJSON(t *testing.T) {
	f := newGuardFixture(t, &stubPlatform{})
	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestSessionGuard_InvalidTokenSignsOut(t *testing.T) {
	f := newGuardFixture(t, &stubPlatform{})
	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/domains", nil)
	req.AddCookie(&http.Cookie{Name: "novaflow_session", Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)

	// The cookie must be cleared alongside the redirect.
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "novaflow_session" && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie should be cleared")
}

func TestSessionGuard_OrphanedTokenSignsOut(t *testing.T) {
	f := newGuardFixture(t, &stubPlatform{profile: &auth.UserProfile{Email: auth.DemoEmail}})
	sess, token := f.signIn(t)
	require.NoError(t, f.store.Delete(context.Background(), sess.ID))

	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/domains", nil)
	req.AddCookie(&http.Cookie{Name: "novaflow_session", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}

func TestSessionGuard_ProfileFailureSignsOut(t *testing.T) {
	platform := &stubPlatform{profileErr: &upstream.StatusError{Code: 401}}
	f := newGuardFixture(t, platform)
	_, token := f.signIn(t)

	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/domains", nil)
	req.AddCookie(&http.Cookie{Name: "novaflow_session", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	// A failed authority check destroys the record: the token is now orphaned.
	assert.Zero(t, f.store.Len())
}

func TestSessionGuard_ResolvesDefaultDomainSelection(t *testing.T) {
	platform := &stubPlatform{profile: &auth.UserProfile{
		Email: auth.DemoEmail,
		Domains: []auth.UserDomain{
			{ID: 10, Code: "FIN", Name: "Finance"},
			{ID: 20, Code: "OPS", Name: "Operations"},
		},
	}}
	f := newGuardFixture(t, platform)
	sess, token := f.signIn(t)
	require.Zero(t, sess.SelectedDomainID, "sign-in leaves no selection")

	var got *session.Session
	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.CurrentSession(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.AddCookie(&http.Cookie{Name: "novaflow_session", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// The first request through the guard selects the first available domain
	// and persists it, so permission checks never run against domain 0.
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.SelectedDomainID)

	stored, err := f.store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.SelectedDomainID)
}

func TestSessionGuard_FreshProfileDropsStaleDecisions(t *testing.T) {
	platform := &stubPlatform{profile: &auth.UserProfile{
		Email:   auth.DemoEmail,
		Domains: []auth.UserDomain{{ID: 10, Code: "FIN", Name: "Finance"}},
		Permissions: map[int64]map[string][]string{
			10: {"/roles": {"READ"}},
		},
	}}
	f := newGuardFixture(t, platform)
	_, token := f.signIn(t)

	var decision bool
	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := auth.CurrentUser(r.Context())
		sess := auth.CurrentSession(r.Context())
		decision = f.checker.Allowed(profile, sess.SelectedDomainID, "/roles", []string{"READ"}, rbac.AnyOf)
	}))

	request := func() {
		req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
		req.AddCookie(&http.Cookie{Name: "novaflow_session", Value: token})
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	request()
	require.True(t, decision, "the grant is honored and cached")

	// The grant is revoked upstream; the next profile fetch must not keep
	// serving the cached decision.
	platform.profile = &auth.UserProfile{
		Email:       auth.DemoEmail,
		Domains:     []auth.UserDomain{{ID: 10, Code: "FIN", Name: "Finance"}},
		Permissions: map[int64]map[string][]string{10: {}},
	}
	request()
	assert.False(t, decision, "revoked grant is denied on the next request")
}

func TestSessionGuard_PublicPathBypassesValidation(t *testing.T) {
	// Platform that would fail any profile fetch.
	platform := &stubPlatform{profileErr: &upstream.StatusError{Code: 500}}
	f := newGuardFixture(t, platform)

	called := false
	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
}
