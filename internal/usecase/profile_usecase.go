package usecase

import (
	"context"

	"drivehub/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileUsecase defines the interface for instructor-profile operations.
type ProfileUsecase interface {
	// GetProfile retrieves an instructor profile by its id.
	GetProfile(ctx context.Context, profileID uuid.UUID) (*entity.InstructorProfile, error)

	// GetProfileByAccount retrieves the profile owned by an account.
	GetProfileByAccount(ctx context.Context, accountID uuid.UUID) (*entity.InstructorProfile, error)

	// UpdateProfile applies a partial update to the caller's own profile.
	UpdateProfile(ctx context.Context, accountID uuid.UUID, input *UpdateProfileInput) (*entity.InstructorProfile, error)
}

// UpdateProfileInput defines the data for a partial instructor-profile update.
type UpdateProfileInput struct {
	YearsExperience *int     `json:"years_experience,omitempty"`
	HourlyRate      *float64 `json:"hourly_rate,omitempty"`
	Bio             *string  `json:"bio,omitempty"`
}
