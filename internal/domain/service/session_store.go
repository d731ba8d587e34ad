package service

import (
	"context"

	"drivehub/internal/domain/entity"
)

// SessionStore is the opaque key-value session collaborator. Records expire under a
// policy owned by the store; this core only gets, saves, and destroys them.
type SessionStore interface {
	// Get retrieves the record for a session id. A missing or expired record
	// returns (nil, nil).
	Get(ctx context.Context, sessionID string) (*entity.SessionRecord, error)

	// Save replaces the record for a session id.
	Save(ctx context.Context, sessionID string, record *entity.SessionRecord) error

	// Destroy removes the record synchronously; a subsequent Get for the same
	// session id observes it as absent.
	Destroy(ctx context.Context, sessionID string) error
}
