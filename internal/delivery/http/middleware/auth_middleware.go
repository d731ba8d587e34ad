// Package middleware contains the HTTP authorization gates. Gates compose
// left-to-right on a route; the first failing gate short-circuits the chain.
package middleware

import (
	"strings"

	"drivehub/config"
	deliverycontext "drivehub/internal/delivery/context"
	"drivehub/internal/domain/entity"
	domainerrors "drivehub/internal/domain/errors"
	"drivehub/internal/domain/service"
	"drivehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthMiddleware provides the authentication and authorization gates.
type AuthMiddleware struct {
	tokenSvc     service.TokenService
	sessionStore service.SessionStore
	profileUc    usecase.ProfileUsecase
	cookieName   string
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, sessionStore service.SessionStore, profileUc usecase.ProfileUsecase, cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{
		tokenSvc:     tokenSvc,
		sessionStore: sessionStore,
		profileUc:    profileUc,
		cookieName:   cfg.Session.CookieName,
	}
}

// Authenticate establishes the caller identity from a bearer credential or an
// active session, in that order. With neither, the request fails Unauthenticated.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if identity := m.identityFromBearer(c); identity != nil {
			deliverycontext.SetIdentity(c, identity)

			return next(c)
		}

		identity, err := m.identityFromSession(c)
		if err != nil {
			return err
		}
		if identity != nil {
			deliverycontext.SetIdentity(c, identity)

			return next(c)
		}

		return domainerrors.ErrUnauthenticated
	}
}

func (m *AuthMiddleware) identityFromBearer(c echo.Context) *entity.Identity {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil
	}

	claims, err := m.tokenSvc.Verify(tokenString)
	if err != nil {
		return nil
	}

	return &entity.Identity{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      claims.Role,
	}
}

func (m *AuthMiddleware) identityFromSession(c echo.Context) (*entity.Identity, error) {
	cookie, err := c.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	record, err := m.sessionStore.Get(c.Request().Context(), cookie.Value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	if !record.Authenticated() {
		return nil, nil
	}

	return &entity.Identity{
		AccountID: record.AccountID,
		Email:     record.Email,
		Role:      record.Role,
	}, nil
}

// RequireRole gates a route on the caller's role.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := deliverycontext.GetIdentity(c)
			if identity == nil {
				return domainerrors.ErrUnauthenticated
			}

			if identity.Role != requiredRole {
				return domainerrors.ErrForbidden.WrapMessage("requires " + requiredRole.String() + " role")
			}

			return next(c)
		}
	}
}

// RequireSelf gates a route on the path account id matching the caller.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireSelf(paramName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := deliverycontext.GetIdentity(c)
			if identity == nil {
				return domainerrors.ErrUnauthenticated
			}

			targetID, err := uuid.Parse(c.Param(paramName))
			if err != nil {
				return domainerrors.ErrValidationFailed.WrapMessage("invalid account id")
			}

			if identity.AccountID != targetID {
				return domainerrors.ErrForbidden.WrapMessage("can only act on your own account")
			}

			return next(c)
		}
	}
}

// RequireProfileOwner gates a route on ownership of the instructor profile named
// by the path, and stashes the resolved profile for the handler so it is not
// looked up twice. It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireProfileOwner(paramName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := deliverycontext.GetIdentity(c)
			if identity == nil {
				return domainerrors.ErrUnauthenticated
			}

			profileID, err := uuid.Parse(c.Param(paramName))
			if err != nil {
				return domainerrors.ErrValidationFailed.WrapMessage("invalid profile id")
			}

			profile, err := m.profileUc.GetProfile(c.Request().Context(), profileID)
			if err != nil {
				return err
			}

			if profile.AccountID != identity.AccountID {
				return domainerrors.ErrForbidden.WrapMessage("profile belongs to another account")
			}

			deliverycontext.SetInstructorProfile(c, profile)

			return next(c)
		}
	}
}
