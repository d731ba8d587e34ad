// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"
	"time"

	"drivehub/internal/domain/entity"

	"github.com/google/uuid"
)

// AuthUsecase defines the interface for identity and access operations: local
// registration and login, the Google authorization-code flow, logout, and the
// authentication check used by the frontend on page load.
type AuthUsecase interface {
	// Register creates a local account with a hashed password.
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)

	// Login verifies an email/password pair and establishes the session.
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)

	// BeginGoogleLogin records the pending role and redirect target on the
	// session and returns the provider authorization URL.
	BeginGoogleLogin(ctx context.Context, input *BeginGoogleLoginInput) (*BeginGoogleLoginOutput, error)

	// CompleteGoogleLogin handles the provider callback: it validates the CSRF
	// state, exchanges the code, resolves the external identity to an account,
	// establishes the session, and returns the frontend redirect URL.
	CompleteGoogleLogin(ctx context.Context, input *CompleteGoogleLoginInput) (*CompleteGoogleLoginOutput, error)

	// Logout destroys the session synchronously.
	Logout(ctx context.Context, sessionID string) error

	// CheckAuthentication reports who the caller is, trying the bearer token
	// first and falling back to the session.
	CheckAuthentication(ctx context.Context, input *CheckAuthInput) (*CheckAuthOutput, error)
}

// --- Input DTOs ---

// RegisterInput defines the data required for local registration.
type RegisterInput struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     entity.Role `json:"role" validate:"required"`

	// SessionID identifies the browser session to establish on success.
	SessionID string `json:"-"`
}

// LoginInput defines the data required for local login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	SessionID string `json:"-"`
}

// BeginGoogleLoginInput carries the pre-redirect choices.
type BeginGoogleLoginInput struct {
	SessionID string

	// RequestedRole is required for first-time external sign-ins; it is stored
	// on the session and consumed during the callback.
	RequestedRole entity.Role

	// RedirectTo is the optional post-login frontend path.
	RedirectTo string
}

// CompleteGoogleLoginInput carries the provider callback parameters.
type CompleteGoogleLoginInput struct {
	SessionID string
	State     string
	Code      string
}

// CheckAuthInput carries both credential channels; either may be empty.
type CheckAuthInput struct {
	BearerToken string
	SessionID   string
}

// --- Output DTOs ---

// AccountView is the caller-facing projection of an account. Credential
// material never appears in it.
type AccountView struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewAccountView projects an account into its caller-facing form.
func NewAccountView(account *entity.Account) *AccountView {
	if account == nil {
		return nil
	}

	return &AccountView{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      account.Role,
		CreatedAt: account.CreatedAt,
	}
}

// AuthOutput is the result of a successful registration or login.
type AuthOutput struct {
	Account *AccountView `json:"account"`
	Token   string       `json:"token"`
}

// BeginGoogleLoginOutput carries the provider authorization URL to redirect to.
type BeginGoogleLoginOutput struct {
	AuthorizationURL string `json:"authorization_url"`
}

// CompleteGoogleLoginOutput is the result of a completed external login.
type CompleteGoogleLoginOutput struct {
	Account *AccountView
	Token   string

	// RedirectTo is the absolute frontend URL the handler redirects the
	// browser to, already carrying the issued token.
	RedirectTo string
}

// CheckAuthOutput reports the caller's authentication state.
type CheckAuthOutput struct {
	Authenticated bool         `json:"authenticated"`
	Account       *AccountView `json:"account,omitempty"`
}
