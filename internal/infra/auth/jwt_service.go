// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"drivehub/config"
	"drivehub/internal/domain/entity"
	domainerrors "drivehub/internal/domain/errors"
	"drivehub/internal/domain/service"
)

// tokenTTL is the absolute bearer-credential lifetime.
const tokenTTL = 7 * 24 * time.Hour

// accountClaims is the on-the-wire claim set. The subject carries the account id.
type accountClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService. An empty signing secret is a
// startup-time configuration error, never a runtime failure.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	return &jwtService{
		secret: []byte(cfg.SecretKey.Access),
		ttl:    tokenTTL,
		now:    time.Now,
	}, nil
}

// Issue creates a signed bearer credential embedding {id, email, role}. The issued-at
// timestamp is part of the signed payload, so two issuances for the same account at
// different times produce different signatures.
func (s *jwtService) Issue(account *entity.Account) (string, error) {
	now := s.now()
	claims := accountClaims{
		Email: account.Email,
		Role:  account.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign bearer credential")
	}

	return signed, nil
}

// Verify validates a credential string against the process-wide secret.
func (s *jwtService) Verify(tokenString string) (*service.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &accountClaims{}, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		// A bad signature always wins: embedded fields (expiry included) cannot
		// be trusted until the signature checks out.
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, domainerrors.ErrTokenInvalid.WrapMessage(err.Error())
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerrors.ErrTokenExpired.WrapMessage(err.Error())
		}

		return nil, domainerrors.ErrTokenInvalid.WrapMessage(err.Error())
	}

	claims, ok := parsed.Claims.(*accountClaims)
	if !ok || !parsed.Valid {
		return nil, domainerrors.ErrTokenInvalid.WrapMessage("failed to parse token claims")
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domainerrors.ErrTokenInvalid.WrapMessage("invalid subject in token")
	}

	return &service.Claims{
		AccountID:        accountID,
		Email:            claims.Email,
		Role:             entity.Role(claims.Role),
		RegisteredClaims: claims.RegisteredClaims,
	}, nil
}

// TokenDuration returns the configured credential lifetime.
func (s *jwtService) TokenDuration() time.Duration {
	return s.ttl
}
