package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/session"
	"github.com/novaflow/console/pkg/upstream"
)

type fakePlatform struct {
	token      string
	exchangeErr error
	profile    *UserProfile
	profileErr error
}

func (f *fakePlatform) ExchangeIdentity(ctx context.Context, idToken string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return f.token, nil
}

func (f *fakePlatform) FetchProfile(ctx context.Context, token string) (*UserProfile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func newTestGateway(t *testing.T, platform PlatformAPI, devMode bool) (*Gateway, *session.MemoryStore, *session.Minter) {
	t.Helper()
	minter, err := session.NewMinter("test-secret", time.Hour)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	cookies := session.NewCookieWriter("novaflow_session", false)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	return NewGateway(nil, platform, minter, store, cookies, logger, devMode), store, minter
}

func TestGateway_AuthCodeURL_NotInitialized(t *testing.T) {
	g, _, _ := newTestGateway(t, &fakePlatform{}, true)

	_, err := g.AuthCodeURL("state")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = g.SignInWithGoogle(context.Background(), httptest.NewRecorder(), "code")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestGateway_DemoSignIn(t *testing.T) {
	t.Run("disabled outside dev mode", func(t *testing.T) {
		g, store, _ := newTestGateway(t, &fakePlatform{}, false)

		_, err := g.DemoSignIn(context.Background(), httptest.NewRecorder())
		assert.Error(t, err)
		assert.Zero(t, store.Len())
	})

	t.Run("establishes a session in dev mode", func(t *testing.T) {
		g, store, minter := newTestGateway(t, &fakePlatform{}, true)

		w := httptest.NewRecorder()
		sess, err := g.DemoSignIn(context.Background(), w)
		require.NoError(t, err)
		assert.Equal(t, DemoEmail, sess.Email)
		assert.Equal(t, 1, store.Len())

		// The cookie must carry a token that resolves back to the record.
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		claims, err := minter.Parse(cookies[0].Value)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, claims.ID)
	})
}

func TestGateway_ResolveSession(t *testing.T) {
	g, store, _ := newTestGateway(t, &fakePlatform{}, true)
	ctx := context.Background()

	w := httptest.NewRecorder()
	sess, err := g.DemoSignIn(ctx, w)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0].Value

	t.Run("valid token resolves to its record", func(t *testing.T) {
		got, err := g.ResolveSession(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, sess.Email, got.Email)
	})

	t.Run("malformed token fails closed", func(t *testing.T) {
		_, err := g.ResolveSession(ctx, "garbage")
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("valid token without a record fails closed", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sess.ID))
		_, err := g.ResolveSession(ctx, token)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})
}

func TestGateway_FetchProfile_SurfacesDenial(t *testing.T) {
	platform := &fakePlatform{profileErr: &upstream.StatusError{Code: 401}}
	g, _, _ := newTestGateway(t, platform, true)

	sess := &session.Session{ID: "s", Email: DemoEmail, UpstreamToken: "t", ExpiresAt: time.Now().Add(time.Hour)}
	_, err := g.FetchProfile(context.Background(), sess)
	require.Error(t, err)
	assert.True(t, upstream.IsAccessDenied(err))
}

func TestGateway_SignOut_ClearsRecordAndCookie(t *testing.T) {
	g, store, _ := newTestGateway(t, &fakePlatform{}, true)
	ctx := context.Background()

	sess, err := g.DemoSignIn(ctx, httptest.NewRecorder())
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	w := httptest.NewRecorder()
	g.SignOut(ctx, w, sess.ID)

	assert.Zero(t, store.Len())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}
