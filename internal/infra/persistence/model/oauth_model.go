package model

import (
	"time"

	"github.com/google/uuid"

	"drivehub/internal/domain/entity"
)

// OAuthConnectionModel mirrors the 'oauth_connections' table. The composite unique
// index enforces that one external identity maps to at most one account.
type OAuthConnectionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	AccountID      uuid.UUID `gorm:"type:uuid;not null"`
	Provider       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_oauth_provider_provider_user_id"`
	ProviderUserID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_oauth_provider_provider_user_id"`
	AccessToken    *string   `gorm:"type:text"`
	RefreshToken   *string   `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (OAuthConnectionModel) TableName() string {
	return "oauth_connections"
}

// ToDomain converts the persistence model to a domain entity.
func (m *OAuthConnectionModel) ToDomain() *entity.OAuthConnection {
	if m == nil {
		return nil
	}

	var accessToken, refreshToken string
	if m.AccessToken != nil {
		accessToken = *m.AccessToken
	}
	if m.RefreshToken != nil {
		refreshToken = *m.RefreshToken
	}

	return &entity.OAuthConnection{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Provider:       entity.ProviderType(m.Provider),
		ProviderUserID: m.ProviderUserID,
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// OAuthConnectionFromDomain converts a domain entity to a persistence model.
// Absent tokens are stored as NULL rather than empty strings.
func OAuthConnectionFromDomain(data *entity.OAuthConnection) *OAuthConnectionModel {
	if data == nil {
		return nil
	}

	return &OAuthConnectionModel{
		ID:             data.ID,
		AccountID:      data.AccountID,
		Provider:       data.Provider.String(),
		ProviderUserID: data.ProviderUserID,
		AccessToken:    NullableToken(data.AccessToken),
		RefreshToken:   NullableToken(data.RefreshToken),
	}
}

// NullableToken maps an empty token to NULL.
func NullableToken(token string) *string {
	if token == "" {
		return nil
	}

	return &token
}
