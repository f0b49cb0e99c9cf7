package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for every non-2xx upstream response. The HTTP
// status is embedded so callers can branch on the failure class, and 401/403
// render as "Access denied" so optional-resource loads can degrade silently.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return fmt.Sprintf("Access denied (status %d)", e.Code)
	}
	if e.Body != "" {
		return fmt.Sprintf("upstream request failed with status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("upstream request failed with status %d", e.Code)
}

// IsAccessDenied reports whether the error is an upstream 401 or 403
func IsAccessDenied(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether the error is an upstream 404
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusNotFound
	}
	return false
}

// StatusOf returns the embedded HTTP status, or 0 for non-upstream errors
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
