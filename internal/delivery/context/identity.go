package context

import (
	"drivehub/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// KeyIdentity is the key for storing the authenticated caller identity in echo.Context.
const KeyIdentity ContextKey = "identity"

// GetIdentity extracts the authenticated identity from echo.Context.
// Returns nil when the request has not passed authentication.
func GetIdentity(c echo.Context) *entity.Identity {
	val := c.Get(string(KeyIdentity))
	if identity, ok := val.(*entity.Identity); ok {
		return identity
	}

	return nil
}

// SetIdentity stores the authenticated identity in echo.Context.
func SetIdentity(c echo.Context, identity *entity.Identity) {
	c.Set(string(KeyIdentity), identity)
}
