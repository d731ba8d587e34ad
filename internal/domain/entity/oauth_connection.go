// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// OAuthConnection links one external-provider identity to exactly one local account.
// The pair (Provider, ProviderUserID) is globally unique.
type OAuthConnection struct {
	ID             uuid.UUID    // The unique ID for this connection record itself.
	AccountID      uuid.UUID    // The owning account.
	Provider       ProviderType // The external provider, e.g. "google".
	ProviderUserID string       // The provider-assigned subject id (Google's 'sub' claim).
	AccessToken    string       // Opaque provider access token; empty when the provider returned none.
	RefreshToken   string       // Opaque provider refresh token; empty when the provider returned none.
	CreatedAt      time.Time    // Timestamp of when this identity was first linked.
	UpdatedAt      time.Time    // Timestamp of the last token refresh.
}
