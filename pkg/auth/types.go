package auth

// UserDomain is one tenant/business unit the user may operate in
type UserDomain struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// UserProfile is the identity returned by the platform's profile endpoint.
// It is fetched fresh on every protected navigation; only the session token
// survives across requests.
type UserProfile struct {
	Email   string       `json:"email"`
	Domains []UserDomain `json:"domains"`

	// Permissions maps a console page path to the permission names granted
	// on it, scoped to a domain: domain id -> path -> permissions.
	Permissions map[int64]map[string][]string `json:"permissions,omitempty"`
}

// PermissionsFor returns the permission names granted on a path within a
// domain. A nil or missing entry means no access.
func (p *UserProfile) PermissionsFor(domainID int64, path string) []string {
	if p == nil || p.Permissions == nil {
		return nil
	}
	byPath, ok := p.Permissions[domainID]
	if !ok {
		return nil
	}
	return byPath[path]
}

// HasDomain reports whether the profile includes the given domain id
func (p *UserProfile) HasDomain(id int64) bool {
	for _, d := range p.Domains {
		if d.ID == id {
			return true
		}
	}
	return false
}
