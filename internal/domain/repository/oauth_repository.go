// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"drivehub/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrConnectionNotFound is returned when no connection exists for a provider identity.
var ErrConnectionNotFound = errors.New("oauth connection not found")

// OAuthRepository defines the operations for external-identity link persistence.
type OAuthRepository interface {
	// FindByProviderUserID retrieves a connection by its provider and provider-assigned subject id.
	FindByProviderUserID(ctx context.Context, provider entity.ProviderType, providerUserID string) (*entity.OAuthConnection, error)

	// ListByAccountID returns all connections owned by an account.
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.OAuthConnection, error)

	// Create persists a new connection. A unique-constraint collision on
	// (provider, provider_user_id) surfaces as domainerrors.ErrConflict.
	Create(ctx context.Context, conn *entity.OAuthConnection) error

	// UpdateTokens overwrites the stored provider token pair unconditionally,
	// including overwriting with empty values.
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error
}
