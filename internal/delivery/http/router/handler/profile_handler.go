package handler

import (
	"net/http"

	deliverycontext "drivehub/internal/delivery/context"
	"drivehub/internal/delivery/http/response"
	domainerrors "drivehub/internal/domain/errors"
	"drivehub/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ProfileHandler holds dependencies for instructor-profile handlers.
type ProfileHandler struct {
	uc usecase.ProfileUsecase
}

// NewProfileHandler is the constructor for ProfileHandler, injected by Fx.
func NewProfileHandler(uc usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

// GetOwnProfile returns the caller's instructor profile.
func (h *ProfileHandler) GetOwnProfile(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthenticated
	}

	profile, err := h.uc.GetProfileByAccount(c.Request().Context(), identity.AccountID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, profile, "Profile retrieved successfully")
}

// GetProfile returns the profile resolved by the ownership gate.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	profile := deliverycontext.GetInstructorProfile(c)
	if profile == nil {
		return domainerrors.ErrNotFound.WrapMessage("instructor profile not found")
	}

	return response.Success(c, http.StatusOK, profile, "Profile retrieved successfully")
}

// UpdateProfile applies a partial update to the profile resolved by the ownership gate.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthenticated
	}

	var input usecase.UpdateProfileInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}

	profile, err := h.uc.UpdateProfile(c.Request().Context(), identity.AccountID, &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, profile, "Profile updated successfully")
}
