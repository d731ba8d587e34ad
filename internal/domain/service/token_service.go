package service

import (
	"time"

	"drivehub/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the verified contents of a bearer credential.
type Claims struct {
	AccountID uuid.UUID
	Email     string
	Role      entity.Role
	jwt.RegisteredClaims
}

// TokenService defines the interface for issuing and verifying bearer credentials.
// Validity is determined purely by signature and expiry; there is no revocation list.
type TokenService interface {
	// Issue creates a signed, time-limited bearer credential for the account.
	Issue(account *entity.Account) (string, error)

	// Verify validates a credential string. It returns
	// domainerrors.ErrTokenInvalid when the signature does not match (regardless
	// of any embedded expiry) and domainerrors.ErrTokenExpired when a correctly
	// signed credential is past its expiry.
	Verify(tokenString string) (*Claims, error)

	// TokenDuration returns the configured credential lifetime.
	TokenDuration() time.Duration
}
