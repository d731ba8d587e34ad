package context

import (
	"drivehub/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// KeyInstructorProfile is the key for a profile resolved by an ownership gate.
const KeyInstructorProfile ContextKey = "instructor_profile"

// GetInstructorProfile extracts a previously resolved instructor profile from
// echo.Context. Returns nil when no ownership gate ran for the request.
func GetInstructorProfile(c echo.Context) *entity.InstructorProfile {
	val := c.Get(string(KeyInstructorProfile))
	if profile, ok := val.(*entity.InstructorProfile); ok {
		return profile
	}

	return nil
}

// SetInstructorProfile stores a resolved instructor profile in echo.Context so
// the downstream handler does not repeat the lookup.
func SetInstructorProfile(c echo.Context, profile *entity.InstructorProfile) {
	c.Set(string(KeyInstructorProfile), profile)
}
