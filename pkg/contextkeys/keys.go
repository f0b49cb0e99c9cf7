// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the console must be defined here. This
// prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *session.Session
	// Set by: guard.SessionGuard after token validation
	// Required by: all protected endpoints, rbac middleware
	SessionKey Key = "session"

	// ProfileKey contains *auth.UserProfile
	// Set by: guard.SessionGuard after a successful profile fetch
	// Required by: rbac checks, created-by attribution
	ProfileKey Key = "profile"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: api request middleware through observability.WithRequestID
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: api request middleware through observability.WithLogger
	// Used by: handlers that log with request context
	LoggerKey Key = "logger"

	// UserKey contains the acting user's email
	// Set by: guard.SessionGuard through observability.WithUser
	// Used by: request-scoped log fields
	UserKey Key = "user"
)

// WithSession adds the session to the context
func WithSession(ctx context.Context, sess interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// WithProfile adds the user profile to the context
func WithProfile(ctx context.Context, profile interface{}) context.Context {
	return context.WithValue(ctx, ProfileKey, profile)
}

// WithUser adds the acting user's email to the context
func WithUser(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserKey, email)
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds the logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
