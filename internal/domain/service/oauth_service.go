package service

import (
	"context"

	"drivehub/internal/domain/entity"
)

// OAuthProfile is the identity a provider asserts about a user after a successful
// authorization-code exchange.
type OAuthProfile struct {
	ProviderUserID string              // Provider-assigned subject id (Google's 'sub').
	Email          string              // Asserted email address; may be empty.
	Name           string              // Asserted display name; may be empty.
	EmailVerified  bool                // Whether the provider verified the email.
	AccessToken    string              // Provider access token from the grant.
	RefreshToken   string              // Provider refresh token; providers may omit this after the first grant.
	Provider       entity.ProviderType // The asserting provider.
}

// OAuthService defines the interface for the external-provider authorization flow.
type OAuthService interface {
	// BuildAuthorizationURL constructs the provider authorization URL. It mints
	// and remembers a fresh CSRF state parameter for the later callback.
	BuildAuthorizationURL() string

	// ValidateState checks and consumes a state parameter. A state is single-use.
	ValidateState(state string) bool

	// Exchange trades an authorization code for the provider token pair and the
	// asserted user profile.
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)

	// Provider returns the provider this service talks to.
	Provider() entity.ProviderType
}
