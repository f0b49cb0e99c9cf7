package domains

import (
	"context"
	"fmt"

	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/session"
)

// FallbackDomain is used when a profile carries no domain assignments at all.
// Operators bootstrapping a fresh platform still need somewhere to land.
var FallbackDomain = auth.UserDomain{ID: 1, Code: "ADMIN", Name: "Administration"}

// ErrNotMember is returned when a selection names a domain outside the
// profile's assignment set.
var ErrNotMember = fmt.Errorf("user is not a member of the requested domain")

// Service owns the per-session domain selection
type Service struct {
	store   session.Store
	bus     *Bus
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates the domain service. metrics may be nil.
func NewService(store session.Store, bus *Bus, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{store: store, bus: bus, logger: logger, metrics: metrics}
}

// Bus exposes the notification bus for subscribers
func (s *Service) Bus() *Bus {
	return s.bus
}

// LoadUserDomains returns the profile's domain set, substituting the fallback
// when the set is empty.
func LoadUserDomains(profile *auth.UserProfile) []auth.UserDomain {
	if profile == nil || len(profile.Domains) == 0 {
		return []auth.UserDomain{FallbackDomain}
	}
	return profile.Domains
}

// Resolve returns the session's effective domain. A saved selection that is
// still in the user's set wins; a stale or absent selection falls back to the
// first domain and the fallback is persisted so later reads agree.
func (s *Service) Resolve(ctx context.Context, sess *session.Session, profile *auth.UserProfile) (auth.UserDomain, error) {
	available := LoadUserDomains(profile)

	if sess.SelectedDomainID != 0 {
		for _, d := range available {
			if d.ID == sess.SelectedDomainID {
				return d, nil
			}
		}
		s.logger.WithFields(map[string]interface{}{
			"email":     sess.Email,
			"domain_id": sess.SelectedDomainID,
		}).Warn("saved domain selection no longer available, falling back")
	}

	first := available[0]
	if err := s.persist(ctx, sess, first); err != nil {
		return auth.UserDomain{}, err
	}
	return first, nil
}

// Select switches the session to the given domain. The selection is persisted
// to the session store before any subscriber hears about it, so a late reader
// always sees the new value. Selecting the current domain again is a no-op
// that still succeeds.
func (s *Service) Select(ctx context.Context, sess *session.Session, profile *auth.UserProfile, domainID int64) (auth.UserDomain, error) {
	var target *auth.UserDomain
	for _, d := range LoadUserDomains(profile) {
		if d.ID == domainID {
			d := d
			target = &d
			break
		}
	}
	if target == nil {
		return auth.UserDomain{}, ErrNotMember
	}

	if sess.SelectedDomainID == domainID {
		return *target, nil
	}

	if err := s.persist(ctx, sess, *target); err != nil {
		return auth.UserDomain{}, err
	}

	s.bus.Publish(Selection{
		SessionID: sess.ID,
		Email:     sess.Email,
		DomainID:  target.ID,
		Code:      target.Code,
	})
	s.logger.WithFields(map[string]interface{}{
		"email":  sess.Email,
		"domain": target.Code,
	}).Info("domain selected")
	return *target, nil
}

func (s *Service) persist(ctx context.Context, sess *session.Session, d auth.UserDomain) error {
	if err := s.store.SetSelectedDomain(ctx, sess.ID, d.ID); err != nil {
		return fmt.Errorf("failed to persist domain selection: %w", err)
	}
	sess.SelectedDomainID = d.ID
	return nil
}
