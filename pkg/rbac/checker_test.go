package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/upstream"
)

func grantedProfile() *auth.UserProfile {
	return &auth.UserProfile{
		Email: "ops@novaflow.local",
		Permissions: map[int64]map[string][]string{
			10: {
				"/roles": {"READ", "WRITE"},
				"/pages": {"READ"},
			},
			20: {
				"/roles": {"READ"},
			},
		},
	}
}

func newChecker(t *testing.T) *Checker {
	t.Helper()
	c, err := NewChecker(0, nil)
	require.NoError(t, err)
	return c
}

func TestChecker_AnyOf(t *testing.T) {
	c := newChecker(t)
	p := grantedProfile()

	assert.True(t, c.Allowed(p, 10, "/roles", []string{"WRITE"}, AnyOf))
	assert.True(t, c.Allowed(p, 10, "/roles", []string{"DELETE", "READ"}, AnyOf),
		"one held permission out of several required suffices")
	assert.False(t, c.Allowed(p, 10, "/roles", []string{"DELETE", "ADMIN"}, AnyOf))
	assert.False(t, c.Allowed(p, 10, "/unknown", []string{"READ"}, AnyOf))
}

func TestChecker_AllOf(t *testing.T) {
	c := newChecker(t)
	p := grantedProfile()

	assert.True(t, c.Allowed(p, 10, "/roles", []string{"READ", "WRITE"}, AllOf))
	assert.False(t, c.Allowed(p, 10, "/roles", []string{"READ", "DELETE"}, AllOf))
	assert.False(t, c.Allowed(p, 10, "/pages", []string{"READ", "WRITE"}, AllOf))
}

func TestChecker_DomainScoping(t *testing.T) {
	c := newChecker(t)
	p := grantedProfile()

	// The same path carries different grants per domain.
	assert.True(t, c.Allowed(p, 10, "/roles", []string{"WRITE"}, AnyOf))
	assert.False(t, c.Allowed(p, 20, "/roles", []string{"WRITE"}, AnyOf))
	assert.False(t, c.Allowed(p, 99, "/roles", []string{"READ"}, AnyOf))
}

func TestChecker_EdgeInputs(t *testing.T) {
	c := newChecker(t)

	assert.True(t, c.Allowed(grantedProfile(), 10, "/roles", nil, AnyOf),
		"no requirement means open")
	assert.False(t, c.Allowed(nil, 10, "/roles", []string{"READ"}, AnyOf),
		"no profile means denied")
}

func TestChecker_CacheInvalidation(t *testing.T) {
	c := newChecker(t)
	p := grantedProfile()

	require.True(t, c.Allowed(p, 10, "/roles", []string{"WRITE"}, AnyOf))

	// Grants were revoked upstream; the cached decision must not outlive the
	// profile refresh.
	p.Permissions[10]["/roles"] = nil
	assert.True(t, c.Allowed(p, 10, "/roles", []string{"WRITE"}, AnyOf),
		"stale decision is served until invalidation")

	c.InvalidateUser(p.Email)
	assert.False(t, c.Allowed(p, 10, "/roles", []string{"WRITE"}, AnyOf))
}

func TestChecker_RefreshDropsDecisionsWhenGrantsChange(t *testing.T) {
	c := newChecker(t)
	p := grantedProfile()

	c.Refresh(p)
	require.True(t, c.Allowed(p, 10, "/roles", []string{"WRITE"}, AnyOf))

	// An identical profile keeps the cache warm.
	c.Refresh(grantedProfile())
	assert.True(t, c.Allowed(p, 10, "/roles", []string{"WRITE"}, AnyOf))

	// A profile with revoked grants drops the user's cached decisions.
	revoked := grantedProfile()
	revoked.Permissions[10]["/roles"] = nil
	c.Refresh(revoked)
	assert.False(t, c.Allowed(revoked, 10, "/roles", []string{"WRITE"}, AnyOf))
}

func TestChecker_RefreshIgnoresEmptyProfiles(t *testing.T) {
	c := newChecker(t)
	p := grantedProfile()
	require.True(t, c.Allowed(p, 10, "/roles", []string{"READ"}, AnyOf))

	c.Refresh(nil)
	c.Refresh(&auth.UserProfile{})

	p.Permissions[10]["/roles"] = nil
	assert.True(t, c.Allowed(p, 10, "/roles", []string{"READ"}, AnyOf),
		"unrelated refreshes leave the cache alone")
}

func TestChecker_InvalidateUser_LeavesOthers(t *testing.T) {
	c := newChecker(t)
	a := grantedProfile()
	b := &auth.UserProfile{
		Email: "other@novaflow.local",
		Permissions: map[int64]map[string][]string{
			10: {"/roles": {"READ"}},
		},
	}

	require.True(t, c.Allowed(a, 10, "/roles", []string{"READ"}, AnyOf))
	require.True(t, c.Allowed(b, 10, "/roles", []string{"READ"}, AnyOf))

	c.InvalidateUser(a.Email)

	// The other user's cached decision survives.
	b.Permissions[10]["/roles"] = nil
	assert.True(t, c.Allowed(b, 10, "/roles", []string{"READ"}, AnyOf))
}

func TestListGuard(t *testing.T) {
	t.Run("denied list degrades to empty", func(t *testing.T) {
		items, err := ListGuard[string](nil, &upstream.StatusError{Code: 403})
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("other failures are surfaced", func(t *testing.T) {
		wantErr := errors.New("connection refused")
		_, err := ListGuard[string](nil, wantErr)
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("success passes through", func(t *testing.T) {
		items, err := ListGuard([]string{"a", "b"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, items)
	})
}
