// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// InstructorProfile holds data specific to the instructor role.
// Exactly one profile exists per instructor account.
type InstructorProfile struct {
	ID              uuid.UUID // The unique ID for this profile record.
	AccountID       uuid.UUID // The owning account (one-to-one).
	YearsExperience int       // Years of driving-instruction experience.
	HourlyRate      float64   // Advertised hourly rate.
	Bio             string    // Free-form introduction shown to learners.
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
