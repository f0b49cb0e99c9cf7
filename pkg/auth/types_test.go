package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserProfile_PermissionsFor(t *testing.T) {
	profile := &UserProfile{
		Email: "admin@example.com",
		Permissions: map[int64]map[string][]string{
			1: {"/roles": {"READ", "WRITE"}},
			2: {"/roles": {"READ"}},
		},
	}

	assert.Equal(t, []string{"READ", "WRITE"}, profile.PermissionsFor(1, "/roles"))
	assert.Equal(t, []string{"READ"}, profile.PermissionsFor(2, "/roles"))
	assert.Nil(t, profile.PermissionsFor(2, "/connections"))
	assert.Nil(t, profile.PermissionsFor(3, "/roles"))

	var nilProfile *UserProfile
	assert.Nil(t, nilProfile.PermissionsFor(1, "/roles"))
}

func TestUserProfile_HasDomain(t *testing.T) {
	profile := &UserProfile{
		Domains: []UserDomain{
			{ID: 1, Code: "FIN", Name: "Finance"},
			{ID: 2, Code: "OPS", Name: "Operations"},
		},
	}

	assert.True(t, profile.HasDomain(1))
	assert.True(t, profile.HasDomain(2))
	assert.False(t, profile.HasDomain(3))
}

func TestNewGoogleProvider_Validation(t *testing.T) {
	ctx := t.Context()

	t.Run("requires credentials", func(t *testing.T) {
		_, err := NewGoogleProvider(ctx, GoogleConfig{RedirectURL: "https://console/callback", Scopes: []string{"openid"}})
		assert.Error(t, err)
	})

	t.Run("requires redirect URL", func(t *testing.T) {
		_, err := NewGoogleProvider(ctx, GoogleConfig{ClientID: "id", ClientSecret: "secret", Scopes: []string{"openid"}})
		assert.Error(t, err)
	})

	t.Run("requires the openid scope", func(t *testing.T) {
		_, err := NewGoogleProvider(ctx, GoogleConfig{
			ClientID: "id", ClientSecret: "secret",
			RedirectURL: "https://console/callback",
			Scopes:      []string{"email", "profile"},
		})
		assert.Error(t, err)
	})
}
