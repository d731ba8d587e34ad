package handler

import (
	"log/slog"
	"net/http"
	"time"

	"drivehub/config"
	"drivehub/internal/delivery/http/response"
	"drivehub/internal/domain/entity"
	"drivehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for identity and access handlers.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	cfg    *config.Config
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		cfg:    cfg,
		logger: logger,
	}
}

// Register handles the local registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var input usecase.RegisterInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	input.SessionID = h.ensureSessionCookie(c)

	output, err := h.uc.Register(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, output, "Account registered successfully")
}

// Login handles the local login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	input.SessionID = h.ensureSessionCookie(c)

	output, err := h.uc.Login(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Login successful")
}

// GoogleLogin initiates the Google authorization-code flow. The selected role
// and optional redirect target ride on the session until the callback.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	input := &usecase.BeginGoogleLoginInput{
		SessionID:     h.ensureSessionCookie(c),
		RequestedRole: entity.Role(c.QueryParam("role")),
		RedirectTo:    c.QueryParam("redirect_to"),
	}

	output, err := h.uc.BeginGoogleLogin(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	if c.QueryParam("redirect") == "true" {
		return c.Redirect(http.StatusTemporaryRedirect, output.AuthorizationURL)
	}

	return response.Success(c, http.StatusOK, output, "Authorization URL generated successfully")
}

// GoogleCallback handles the provider redirect back from Google.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if errParam := c.QueryParam("error"); errParam != "" {
		return response.BadRequest(c, "OAUTH_DENIED", "Google sign-in was cancelled or denied")
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Missing code or state parameter")
	}

	input := &usecase.CompleteGoogleLoginInput{
		SessionID: h.ensureSessionCookie(c),
		State:     state,
		Code:      code,
	}

	output, err := h.uc.CompleteGoogleLogin(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Redirect(http.StatusFound, output.RedirectTo)
}

// Logout destroys the session and expires the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	sessionID := h.sessionID(c)
	if err := h.uc.Logout(c.Request().Context(), sessionID); err != nil {
		return errors.WithStack(err)
	}

	h.expireSessionCookie(c)

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

// Check reports whether the caller is authenticated, via bearer token or session.
func (h *AuthHandler) Check(c echo.Context) error {
	input := &usecase.CheckAuthInput{
		BearerToken: bearerToken(c),
		SessionID:   h.sessionID(c),
	}

	output, err := h.uc.CheckAuthentication(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Authentication checked")
}

// sessionID returns the session id carried by the request cookie, if any.
func (h *AuthHandler) sessionID(c echo.Context) string {
	cookie, err := c.Cookie(h.cfg.Session.CookieName)
	if err != nil {
		return ""
	}

	return cookie.Value
}

// ensureSessionCookie returns the existing session id or mints a new one and
// sets its cookie on the response.
func (h *AuthHandler) ensureSessionCookie(c echo.Context) string {
	if sessionID := h.sessionID(c); sessionID != "" {
		return sessionID
	}

	sessionID := uuid.New().String()
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.cfg.Session.TTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sessionID
}

func (h *AuthHandler) expireSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// bearerToken extracts the bearer credential from the Authorization header.
func bearerToken(c echo.Context) string {
	const prefix = "Bearer "
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		return authHeader[len(prefix):]
	}

	return ""
}
