// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"drivehub/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when an instructor profile is not found.
var ErrProfileNotFound = errors.New("instructor profile not found")

// ProfileRepository defines the operations for instructor-profile persistence.
type ProfileRepository interface {
	// FindByID retrieves a profile by its own id.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.InstructorProfile, error)

	// FindByAccountID retrieves the profile owned by an account.
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.InstructorProfile, error)

	// Create persists a new profile. The one-profile-per-account constraint
	// surfaces collisions as domainerrors.ErrConflict.
	Create(ctx context.Context, profile *entity.InstructorProfile) error

	// Update modifies an existing profile.
	Update(ctx context.Context, profile *entity.InstructorProfile) error
}
