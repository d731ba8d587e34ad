// Package entity contains the core business objects of the project.
package entity

import "github.com/google/uuid"

// SessionRecord is the server-held state associated with a session id. The account
// snapshot fields are replaced wholesale on every Establish; the pending fields are
// transient, written before an external-provider redirect and consumed exactly once
// during the callback.
type SessionRecord struct {
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`

	// PendingRole is the role the user selected before being redirected to the
	// external provider. Empty once consumed.
	PendingRole Role `json:"pending_role,omitempty"`
	// PendingRedirect is the post-login redirect target. Empty once consumed.
	PendingRedirect string `json:"pending_redirect,omitempty"`
}

// Authenticated reports whether the record carries an account snapshot.
func (s *SessionRecord) Authenticated() bool {
	return s != nil && s.AccountID != uuid.Nil
}

// Identity is the caller identity established by the access-control chain and
// threaded through the request context as an explicit typed value.
type Identity struct {
	AccountID uuid.UUID
	Email     string
	Role      Role
}
