// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account is the core identity in the system. Email is globally unique across all
// accounts regardless of how the account was created.
type Account struct {
	ID           uuid.UUID // The unique, stable identifier for the account.
	Name         string    // The account holder's display name.
	Email        string    // The primary contact email, used as the login identifier.
	PasswordHash string    // bcrypt hash of the local password; empty for accounts created purely via an external identity.
	Role         Role      // Either instructor or learner.
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this account.
}

// HasPassword reports whether the account can authenticate with a local password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}
