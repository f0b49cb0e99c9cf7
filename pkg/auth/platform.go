package auth

import (
	"context"
	"fmt"

	"github.com/novaflow/console/pkg/upstream"
)

// PlatformAPI is the slice of the platform's auth surface the gateway needs.
// Split out so tests can substitute a fake without a network.
type PlatformAPI interface {
	// ExchangeIdentity swaps a verified Google ID token for a platform
	// bearer token.
	ExchangeIdentity(ctx context.Context, idToken string) (string, error)

	// FetchProfile fetches the user profile with a platform bearer token.
	// A non-2xx response surfaces as an upstream.StatusError.
	FetchProfile(ctx context.Context, token string) (*UserProfile, error)
}

// PlatformClient implements PlatformAPI over the shared upstream base client
type PlatformClient struct {
	client *upstream.Client
}

// NewPlatformClient creates a platform auth client
func NewPlatformClient(client *upstream.Client) *PlatformClient {
	return &PlatformClient{client: client}
}

// ExchangeIdentity swaps a verified Google ID token for a platform bearer token
func (pc *PlatformClient) ExchangeIdentity(ctx context.Context, idToken string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := pc.client.Post(ctx, "/api/auth/google", "", map[string]string{"idToken": idToken}, &out,
		upstream.CallOpts{Resource: "auth", Operation: "exchange"})
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("platform returned an empty token")
	}
	return out.Token, nil
}

// FetchProfile fetches the user profile with a platform bearer token
func (pc *PlatformClient) FetchProfile(ctx context.Context, token string) (*UserProfile, error) {
	var profile UserProfile
	err := pc.client.Get(ctx, "/api/users/profile", token, &profile,
		upstream.CallOpts{Resource: "auth", Operation: "profile"})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
