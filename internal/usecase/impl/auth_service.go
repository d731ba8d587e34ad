// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"drivehub/config"
	deliverycontext "drivehub/internal/delivery/context"
	"drivehub/internal/domain/entity"
	domainerrors "drivehub/internal/domain/errors"
	"drivehub/internal/domain/repository"
	"drivehub/internal/domain/service"
	"drivehub/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultExternalAccountName = "New member"

const oauthSuccessPath = "/oauth-success"

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	accountRepo  repository.AccountRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	oauthService service.OAuthService
	sessionStore service.SessionStore
	frontendURL  string
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	AccountRepo  repository.AccountRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	OAuthService service.OAuthService
	SessionStore service.SessionStore
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	frontendURL := ""
	if params.Config != nil && params.Config.Frontend != nil {
		frontendURL = strings.TrimRight(params.Config.Frontend.BaseURL, "/")
	}

	return &authService{
		txManager:    params.TxManager,
		accountRepo:  params.AccountRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		oauthService: params.OAuthService,
		sessionStore: params.SessionStore,
		frontendURL:  frontendURL,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete local registration process.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	if !input.Role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("role must be instructor or learner")
	}

	srv.log(ctx).Info("Starting registration", slog.Any("role", input.Role), slog.String("email", input.Email))

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	var registered *entity.Account
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()

		_, err := accountRepo.FindByEmail(ctx, input.Email)
		if err == nil {
			return domainerrors.ErrEmailAlreadyRegistered
		}
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return errors.Wrap(err, "failed to check existing email")
		}

		account := &entity.Account{
			Name:         input.Name,
			Email:        input.Email,
			PasswordHash: passwordHash,
			Role:         input.Role,
		}
		if err := accountRepo.Create(ctx, account); err != nil {
			// A concurrent registration for the same email lost the race.
			if errors.Is(err, domainerrors.ErrConflict) {
				return domainerrors.ErrEmailAlreadyRegistered
			}

			return err
		}

		// Instructors get an empty profile immediately so the profile routes
		// never observe an instructor account without one.
		if account.Role == entity.RoleInstructor {
			if err := repoFactory.ProfileRepo().Create(ctx, &entity.InstructorProfile{AccountID: account.ID}); err != nil {
				return err
			}
		}

		registered = account

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	token, err := srv.tokenService.Issue(registered)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}

	if err := srv.establishSession(ctx, input.SessionID, registered); err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("accountID", registered.ID))

	return &usecase.AuthOutput{Account: usecase.NewAccountView(registered), Token: token}, nil
}

// Login verifies an email/password pair and establishes the session.
// Unknown email, external-only account, and wrong password all fail with the
// same error so responses never reveal which check failed.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, errors.Wrap(err, "failed to find account by email")
	}

	if !account.HasPassword() {
		return nil, domainerrors.ErrInvalidCredentials
	}

	if !srv.hasher.Check(input.Password, account.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	token, err := srv.tokenService.Issue(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}

	if err := srv.establishSession(ctx, input.SessionID, account); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Login completed", slog.Any("accountID", account.ID))

	return &usecase.AuthOutput{Account: usecase.NewAccountView(account), Token: token}, nil
}

// BeginGoogleLogin records the pending role and redirect target on the session
// and returns the provider authorization URL.
func (srv *authService) BeginGoogleLogin(ctx context.Context, input *usecase.BeginGoogleLoginInput) (*usecase.BeginGoogleLoginOutput, error) {
	if input.RequestedRole != "" && !input.RequestedRole.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("role must be instructor or learner")
	}

	record, err := srv.sessionStore.Get(ctx, input.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	if record == nil {
		record = &entity.SessionRecord{}
	}

	record.PendingRole = input.RequestedRole
	record.PendingRedirect = input.RedirectTo

	if err := srv.sessionStore.Save(ctx, input.SessionID, record); err != nil {
		return nil, errors.Wrap(err, "failed to save session")
	}

	authorizationURL := srv.oauthService.BuildAuthorizationURL()

	return &usecase.BeginGoogleLoginOutput{AuthorizationURL: authorizationURL}, nil
}

// CompleteGoogleLogin handles the provider callback.
func (srv *authService) CompleteGoogleLogin(ctx context.Context, input *usecase.CompleteGoogleLoginInput) (*usecase.CompleteGoogleLoginOutput, error) {
	if !srv.oauthService.ValidateState(input.State) {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("invalid or expired state parameter")
	}

	profile, err := srv.oauthService.Exchange(ctx, input.Code)
	if err != nil {
		srv.log(ctx).Error("Failed to exchange authorization code", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}

	record, err := srv.sessionStore.Get(ctx, input.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	if record == nil {
		record = &entity.SessionRecord{}
	}

	// Pending fields are consumed exactly once; establishSession replaces the
	// record with a fresh snapshot, clearing them.
	pendingRole := record.PendingRole
	pendingRedirect := record.PendingRedirect

	account, err := srv.resolveExternal(ctx, profile, pendingRole)
	if err != nil {
		return nil, err
	}

	token, err := srv.tokenService.Issue(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}

	if err := srv.establishSession(ctx, input.SessionID, account); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("External login completed", slog.Any("accountID", account.ID), slog.String("provider", profile.Provider.String()))

	return &usecase.CompleteGoogleLoginOutput{
		Account:    usecase.NewAccountView(account),
		Token:      token,
		RedirectTo: srv.buildFrontendRedirect(pendingRedirect, token),
	}, nil
}

// resolveExternal maps a provider-asserted identity to exactly one local account.
// Priority: existing connection, then existing account by email, then creation.
// A uniqueness collision from a concurrent login re-runs the resolution once; the
// second run finds the winner's rows.
func (srv *authService) resolveExternal(ctx context.Context, profile *service.OAuthProfile, requestedRole entity.Role) (*entity.Account, error) {
	account, err := srv.resolveExternalOnce(ctx, profile, requestedRole)
	if errors.Is(err, domainerrors.ErrConflict) {
		srv.log(ctx).Warn("Concurrent external login detected, retrying resolution",
			slog.String("provider", profile.Provider.String()))

		account, err = srv.resolveExternalOnce(ctx, profile, requestedRole)
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (srv *authService) resolveExternalOnce(ctx context.Context, profile *service.OAuthProfile, requestedRole entity.Role) (*entity.Account, error) {
	var resolved *entity.Account
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()
		oauthRepo := repoFactory.OAuthRepo()

		// Step 1: the external identity is already linked.
		conn, err := oauthRepo.FindByProviderUserID(ctx, profile.Provider, profile.ProviderUserID)
		if err == nil {
			account, err := accountRepo.FindByID(ctx, conn.AccountID)
			if err != nil {
				return errors.Wrap(err, "failed to load linked account")
			}

			// The provider is authoritative for token state: overwrite both
			// stored tokens with whatever was presented, including nothing.
			if err := oauthRepo.UpdateTokens(ctx, conn.ID, profile.AccessToken, profile.RefreshToken); err != nil {
				return err
			}

			resolved = account

			return nil
		}
		if !errors.Is(err, repository.ErrConnectionNotFound) {
			return errors.Wrap(err, "failed to find oauth connection")
		}

		// Email is required before any lookup or creation past this point.
		if profile.Email == "" {
			return domainerrors.ErrMissingEmail
		}

		// Step 2: an account with this email already exists; attach the link.
		account, err := accountRepo.FindByEmail(ctx, profile.Email)
		if err == nil {
			if err := oauthRepo.Create(ctx, newConnection(account, profile)); err != nil {
				return err
			}

			resolved = account

			return nil
		}
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return errors.Wrap(err, "failed to find account by email")
		}

		// Step 3: first sign-in, create everything. Requires a role choice.
		if !requestedRole.IsValid() {
			return domainerrors.ErrRoleNotSelected
		}

		name := profile.Name
		if name == "" {
			name = defaultExternalAccountName
		}

		account = &entity.Account{
			Name:  name,
			Email: profile.Email,
			Role:  requestedRole,
		}
		if err := accountRepo.Create(ctx, account); err != nil {
			return err
		}

		if requestedRole == entity.RoleInstructor {
			if err := repoFactory.ProfileRepo().Create(ctx, &entity.InstructorProfile{AccountID: account.ID}); err != nil {
				return err
			}
		}

		if err := oauthRepo.Create(ctx, newConnection(account, profile)); err != nil {
			return err
		}

		resolved = account

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

// Logout destroys the session synchronously. Logging out an already-absent
// session is not an error.
func (srv *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := srv.sessionStore.Destroy(ctx, sessionID); err != nil {
		return errors.Wrap(err, "failed to destroy session")
	}

	srv.log(ctx).Info("Logout completed")

	return nil
}

// CheckAuthentication reports who the caller is, trying the bearer token first
// and falling back to the session. It never fails on bad credentials; it
// reports unauthenticated instead.
func (srv *authService) CheckAuthentication(ctx context.Context, input *usecase.CheckAuthInput) (*usecase.CheckAuthOutput, error) {
	if input.BearerToken != "" {
		if claims, err := srv.tokenService.Verify(input.BearerToken); err == nil {
			account, err := srv.accountRepo.FindByID(ctx, claims.AccountID)
			if err == nil {
				return &usecase.CheckAuthOutput{Authenticated: true, Account: usecase.NewAccountView(account)}, nil
			}
			if !errors.Is(err, repository.ErrAccountNotFound) {
				return nil, errors.Wrap(err, "failed to load account for token")
			}
		}
	}

	if input.SessionID != "" {
		record, err := srv.sessionStore.Get(ctx, input.SessionID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load session")
		}
		if record.Authenticated() {
			account, err := srv.accountRepo.FindByID(ctx, record.AccountID)
			if err == nil {
				return &usecase.CheckAuthOutput{Authenticated: true, Account: usecase.NewAccountView(account)}, nil
			}
			if !errors.Is(err, repository.ErrAccountNotFound) {
				return nil, errors.Wrap(err, "failed to load account for session")
			}
		}
	}

	return &usecase.CheckAuthOutput{Authenticated: false}, nil
}

// establishSession replaces the session record with a fresh account snapshot.
// Replacement also clears any pending fields left from an external-login redirect.
func (srv *authService) establishSession(ctx context.Context, sessionID string, account *entity.Account) error {
	if sessionID == "" {
		return nil
	}

	record := &entity.SessionRecord{
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      account.Role,
	}
	if err := srv.sessionStore.Save(ctx, sessionID, record); err != nil {
		return errors.Wrap(err, "failed to save session")
	}

	return nil
}

// buildFrontendRedirect resolves the post-login browser destination. The pending
// redirect is a frontend path; absent, the default success page is used. The
// issued token always rides along as a query parameter.
func (srv *authService) buildFrontendRedirect(pendingRedirect, token string) string {
	path := pendingRedirect
	// Only frontend paths pass. "//host" is protocol-relative, not a path.
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		path = oauthSuccessPath
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return srv.frontendURL + path + separator + "token=" + url.QueryEscape(token)
}

func newConnection(account *entity.Account, profile *service.OAuthProfile) *entity.OAuthConnection {
	return &entity.OAuthConnection{
		AccountID:      account.ID,
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		AccessToken:    profile.AccessToken,
		RefreshToken:   profile.RefreshToken,
	}
}
