package model

import (
	"time"

	"github.com/google/uuid"

	"drivehub/internal/domain/entity"
)

// InstructorProfileModel mirrors the 'instructor_profiles' table. AccountID is unique:
// exactly one profile per instructor account.
type InstructorProfileModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	AccountID       uuid.UUID `gorm:"type:uuid;unique;not null"`
	YearsExperience int
	HourlyRate      float64 `gorm:"type:decimal(10,2)"`
	Bio             string  `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (InstructorProfileModel) TableName() string {
	return "instructor_profiles"
}

// ToDomain converts the persistence model to a domain entity.
func (m *InstructorProfileModel) ToDomain() *entity.InstructorProfile {
	if m == nil {
		return nil
	}

	return &entity.InstructorProfile{
		ID:              m.ID,
		AccountID:       m.AccountID,
		YearsExperience: m.YearsExperience,
		HourlyRate:      m.HourlyRate,
		Bio:             m.Bio,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// InstructorProfileFromDomain converts a domain entity to a persistence model.
func InstructorProfileFromDomain(data *entity.InstructorProfile) *InstructorProfileModel {
	if data == nil {
		return nil
	}

	return &InstructorProfileModel{
		ID:              data.ID,
		AccountID:       data.AccountID,
		YearsExperience: data.YearsExperience,
		HourlyRate:      data.HourlyRate,
		Bio:             data.Bio,
	}
}
