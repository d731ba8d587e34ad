package model

import (
	"time"

	"github.com/google/uuid"

	"drivehub/internal/domain/entity"
)

// AccountModel mirrors the 'accounts' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type AccountModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Email        string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash *string   `gorm:"type:varchar(255)"`
	Role         string    `gorm:"type:varchar(50);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	OAuthConnections  []OAuthConnectionModel  `gorm:"foreignKey:AccountID"`
	InstructorProfile *InstructorProfileModel `gorm:"foreignKey:AccountID"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain entity.
func (m *AccountModel) ToDomain() *entity.Account {
	if m == nil {
		return nil
	}

	var passwordHash string
	if m.PasswordHash != nil {
		passwordHash = *m.PasswordHash
	}

	return &entity.Account{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: passwordHash,
		Role:         entity.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// AccountFromDomain converts a domain entity to a persistence model.
// An empty password hash is stored as NULL: the column distinguishes
// external-identity-only accounts from local ones.
func AccountFromDomain(data *entity.Account) *AccountModel {
	if data == nil {
		return nil
	}

	var passwordHash *string
	if data.PasswordHash != "" {
		hash := data.PasswordHash
		passwordHash = &hash
	}

	return &AccountModel{
		ID:           data.ID,
		Name:         data.Name,
		Email:        data.Email,
		PasswordHash: passwordHash,
		Role:         data.Role.String(),
	}
}
