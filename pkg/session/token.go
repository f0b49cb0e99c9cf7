package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for malformed, mis-signed, or expired tokens.
// Callers must treat it as "no token present".
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the session token claims
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Minter issues and verifies signed session tokens
type Minter struct {
	secret []byte
	ttl    time.Duration
}

// NewMinter creates a token minter with the given signing secret and TTL
func NewMinter(secret string, ttl time.Duration) (*Minter, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token TTL must be positive")
	}
	return &Minter{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured session lifetime
func (m *Minter) TTL() time.Duration {
	return m.ttl
}

// Mint issues a new session token for the given user. The token ID doubles as
// the session record key in the store.
func (m *Minter) Mint(email string) (token string, sessionID string, expiresAt time.Time, err error) {
	if email == "" {
		return "", "", time.Time{}, fmt.Errorf("email is required")
	}

	sessionID = uuid.NewString()
	expiresAt = time.Now().Add(m.ttl)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "novaflow-console",
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(m.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, sessionID, expiresAt, nil
}

// Parse verifies a session token and returns its claims. Any defect in the
// token (bad signature, wrong algorithm, expiry) yields ErrInvalidToken.
func (m *Minter) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IsAuthenticated reports whether the token is present, well formed, and not
// provably expired.
func (m *Minter) IsAuthenticated(token string) bool {
	_, err := m.Parse(token)
	return err == nil
}
