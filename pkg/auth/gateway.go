package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/novaflow/console/pkg/contextkeys"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/session"
)

// ErrNotInitialized is returned when sign-in is attempted before the Google
// provider finished discovery.
var ErrNotInitialized = errors.New("google sign-in is not initialized")

// DemoEmail is the identity used by the dev-only demo login
const DemoEmail = "demo@novaflow.local"

// Gateway owns sign-in, sign-out, and the profile authority check
type Gateway struct {
	google   *GoogleProvider
	platform PlatformAPI
	minter   *session.Minter
	store    session.Store
	cookies  *session.CookieWriter
	logger   *observability.Logger
	devMode  bool
}

// NewGateway assembles the auth gateway. google may be nil in dev mode; any
// Google sign-in attempt then fails with ErrNotInitialized.
func NewGateway(google *GoogleProvider, platform PlatformAPI, minter *session.Minter,
	store session.Store, cookies *session.CookieWriter, logger *observability.Logger, devMode bool) *Gateway {
	return &Gateway{
		google:   google,
		platform: platform,
		minter:   minter,
		store:    store,
		cookies:  cookies,
		logger:   logger,
		devMode:  devMode,
	}
}

// AuthCodeURL returns the Google authorization URL for the given state
func (g *Gateway) AuthCodeURL(state string) (string, error) {
	if g.google == nil {
		return "", ErrNotInitialized
	}
	return g.google.AuthCodeURL(state), nil
}

// SignInWithGoogle completes the sign-in: authorization code to verified
// identity, identity to platform token, platform token to console session.
// On any failure the prior session, if one exists, is left untouched.
func (g *Gateway) SignInWithGoogle(ctx context.Context, w http.ResponseWriter, code string) (*session.Session, error) {
	if g.google == nil {
		return nil, ErrNotInitialized
	}

	identity, err := g.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google sign-in failed: %w", err)
	}

	upstreamToken, err := g.platform.ExchangeIdentity(ctx, identity.RawToken)
	if err != nil {
		return nil, fmt.Errorf("platform rejected the sign-in: %w", err)
	}

	return g.establishSession(ctx, w, identity.Email, upstreamToken)
}

// DemoSignIn establishes a session for the demo identity. Refused outside
// dev mode; the demo token must never reach production.
func (g *Gateway) DemoSignIn(ctx context.Context, w http.ResponseWriter) (*session.Session, error) {
	if !g.devMode {
		return nil, fmt.Errorf("demo login is disabled")
	}
	return g.establishSession(ctx, w, DemoEmail, "demo-token")
}

func (g *Gateway) establishSession(ctx context.Context, w http.ResponseWriter, email, upstreamToken string) (*session.Session, error) {
	token, sessionID, expiresAt, err := g.minter.Mint(email)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	sess := &session.Session{
		ID:            sessionID,
		Email:         email,
		ExpiresAt:     expiresAt,
		CreatedAt:     time.Now(),
		UpstreamToken: upstreamToken,
	}
	if err := g.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	g.cookies.Write(w, token, expiresAt)
	g.logger.WithField("email", email).Info("user signed in")
	return sess, nil
}

// FetchProfile refreshes the profile for the session. This is the authority
// check: any error must be handled by signing the user out, never by serving
// protected content.
func (g *Gateway) FetchProfile(ctx context.Context, sess *session.Session) (*UserProfile, error) {
	profile, err := g.platform.FetchProfile(ctx, sess.UpstreamToken)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// SignOut destroys the session record and the cookie together
func (g *Gateway) SignOut(ctx context.Context, w http.ResponseWriter, sessionID string) {
	if sessionID != "" {
		if err := g.store.Delete(ctx, sessionID); err != nil {
			g.logger.WithError(err).Warn("failed to delete session record")
		}
	}
	g.cookies.Clear(w)
}

// ResolveSession parses a bearer token and loads its session record.
// Malformed tokens and missing records both yield session.ErrInvalidToken so
// callers fail closed on one path.
func (g *Gateway) ResolveSession(ctx context.Context, token string) (*session.Session, error) {
	claims, err := g.minter.Parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := g.store.Get(ctx, claims.ID)
	if err != nil {
		return nil, session.ErrInvalidToken
	}
	return sess, nil
}

// CurrentUser returns the profile attached to the request context by the
// session guard, or nil outside a protected route.
func CurrentUser(ctx context.Context) *UserProfile {
	profile, _ := ctx.Value(contextkeys.ProfileKey).(*UserProfile)
	return profile
}

// CurrentSession returns the session attached to the request context by the
// session guard, or nil outside a protected route.
func CurrentSession(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(contextkeys.SessionKey).(*session.Session)
	return sess
}
