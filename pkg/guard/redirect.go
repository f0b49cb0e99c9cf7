package guard

import (
	"fmt"
	"net/http"

	"github.com/novaflow/console/pkg/httputil"
)

// DashboardPath is the post-login landing page
const DashboardPath = "/dashboard"

// allowedRedirects is the fixed set of legal server-driven redirect targets.
// Anything else is rejected as invalid input, never followed.
var allowedRedirects = map[string]struct{}{
	DashboardPath:    {},
	LoginPath:        {},
	UnauthorizedPath: {},
}

// ValidateRedirect checks a destination against the allow-list
func ValidateRedirect(destination string) error {
	if _, ok := allowedRedirects[destination]; !ok {
		return fmt.Errorf("invalid redirect destination: %q", destination)
	}
	return nil
}

// RedirectHandler accepts a destination and issues the redirect when, and
// only when, the destination is on the allow-list.
func RedirectHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Destination string `json:"destination"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := ValidateRedirect(req.Destination); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	http.Redirect(w, r, req.Destination, http.StatusFound)
}
