package rbac

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/observability"
)

// Combinator selects how multiple required permissions combine
type Combinator int

const (
	// AnyOf grants access when at least one required permission is held.
	// This is the default for page-level gating.
	AnyOf Combinator = iota
	// AllOf grants access only when every required permission is held.
	// Callers opt in explicitly for sensitive operations.
	AllOf
)

func (c Combinator) String() string {
	if c == AllOf {
		return "all_of"
	}
	return "any_of"
}

// DefaultCacheSize bounds the decision cache
const DefaultCacheSize = 4096

// Checker answers permission questions against a profile, scoped to a domain.
// Decisions are cached; the cache is invalidated per user whenever a fresh
// profile arrives.
type Checker struct {
	cache   *lru.Cache[string, bool]
	metrics *observability.Metrics

	mu   sync.Mutex
	seen map[string]uint64
}

// NewChecker creates a checker with a bounded decision cache. A size of 0
// uses the default. metrics may be nil.
func NewChecker(cacheSize int, metrics *observability.Metrics) (*Checker, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, bool](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Checker{cache: cache, metrics: metrics, seen: make(map[string]uint64)}, nil
}

// Allowed reports whether the profile holds the required permissions on the
// given page path within the domain. An empty requirement list always allows.
func (c *Checker) Allowed(profile *auth.UserProfile, domainID int64, path string, required []string, comb Combinator) bool {
	if len(required) == 0 {
		return true
	}
	if profile == nil {
		return false
	}

	key := cacheKey(profile.Email, domainID, path, required, comb)
	if decision, ok := c.cache.Get(key); ok {
		if c.metrics != nil {
			c.metrics.PermissionCacheHits.Inc()
		}
		return decision
	}
	if c.metrics != nil {
		c.metrics.PermissionCacheMisses.Inc()
	}

	decision := evaluate(profile.PermissionsFor(domainID, path), required, comb)
	c.cache.Add(key, decision)
	return decision
}

// Refresh compares the profile's grants against the last version seen for
// that user and drops the user's cached decisions when they differ. The
// session guard calls this with every fresh profile, so revoked grants stop
// being honored on the next request.
func (c *Checker) Refresh(profile *auth.UserProfile) {
	if profile == nil || profile.Email == "" {
		return
	}

	fp := fingerprint(profile)
	c.mu.Lock()
	prev, ok := c.seen[profile.Email]
	c.seen[profile.Email] = fp
	c.mu.Unlock()

	if ok && prev == fp {
		return
	}
	c.InvalidateUser(profile.Email)
}

// InvalidateUser drops every cached decision for one user
func (c *Checker) InvalidateUser(email string) {
	prefix := email + "|"
	for _, key := range c.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Remove(key)
		}
	}
}

func evaluate(held, required []string, comb Combinator) bool {
	heldSet := make(map[string]struct{}, len(held))
	for _, p := range held {
		heldSet[p] = struct{}{}
	}

	if comb == AllOf {
		for _, p := range required {
			if _, ok := heldSet[p]; !ok {
				return false
			}
		}
		return true
	}

	for _, p := range required {
		if _, ok := heldSet[p]; ok {
			return true
		}
	}
	return false
}

// fingerprint hashes the profile's permission grants deterministically so two
// profiles with the same grants always compare equal.
func fingerprint(profile *auth.UserProfile) uint64 {
	h := fnv.New64a()

	domainIDs := make([]int64, 0, len(profile.Permissions))
	for id := range profile.Permissions {
		domainIDs = append(domainIDs, id)
	}
	sort.Slice(domainIDs, func(i, j int) bool { return domainIDs[i] < domainIDs[j] })

	for _, id := range domainIDs {
		h.Write([]byte(strconv.FormatInt(id, 10)))
		h.Write([]byte{'|'})

		grants := profile.Permissions[id]
		paths := make([]string, 0, len(grants))
		for p := range grants {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			h.Write([]byte(p))
			h.Write([]byte{':'})
			perms := append([]string(nil), grants[p]...)
			sort.Strings(perms)
			for _, perm := range perms {
				h.Write([]byte(perm))
				h.Write([]byte{','})
			}
			h.Write([]byte{';'})
		}
	}
	return h.Sum64()
}

func cacheKey(email string, domainID int64, path string, required []string, comb Combinator) string {
	var b strings.Builder
	b.WriteString(email)
	b.WriteByte('|')
	b.WriteString(strings.TrimSpace(path))
	b.WriteByte('|')
	b.WriteString(comb.String())
	b.WriteByte('|')
	for i, p := range required {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p)
	}
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(domainID, 10))
	return b.String()
}
