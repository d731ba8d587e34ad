package impl

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"drivehub/internal/domain/entity"
	domainerrors "drivehub/internal/domain/errors"
	"drivehub/internal/domain/service"
	"drivehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authServiceFixtures holds all test dependencies for auth service tests.
type authServiceFixtures struct {
	service  usecase.AuthUsecase
	impl     *authService
	store    *memStore
	tx       *fakeTxManager
	tokens   *fakeTokenService
	sessions *fakeSessionStore
	oauth    *fakeOAuthService
}

func createTestAuthService(t *testing.T) authServiceFixtures {
	t.Helper()

	store := newMemStore()
	tx := newFakeTxManager(store)
	tokens := newFakeTokenService()
	sessions := newFakeSessionStore()
	oauth := newFakeOAuthService()

	svc := NewAuthService(AuthServiceParams{
		TxManager:    tx,
		AccountRepo:  &fakeAccountRepo{store: store},
		Hasher:       fakeHasher{},
		TokenService: tokens,
		OAuthService: oauth,
		SessionStore: sessions,
		Config:       newTestConfig(),
		Logger:       newDiscardLogger(),
	})

	return authServiceFixtures{
		service:  svc,
		impl:     svc.(*authService),
		store:    store,
		tx:       tx,
		tokens:   tokens,
		sessions: sessions,
		oauth:    oauth,
	}
}

func googleProfile(sub, email, name string) *service.OAuthProfile {
	return &service.OAuthProfile{
		ProviderUserID: sub,
		Email:          email,
		Name:           name,
		EmailVerified:  true,
		AccessToken:    "ya29.access",
		RefreshToken:   "1//refresh",
		Provider:       entity.ProviderTypeGoogle,
	}
}

// completeGoogleLogin runs the begin+callback pair for the given profile,
// returning the callback output.
func completeGoogleLogin(t *testing.T, fx authServiceFixtures, sessionID string, role entity.Role, profile *service.OAuthProfile) *usecase.CompleteGoogleLoginOutput {
	t.Helper()

	ctx := context.Background()
	begin, err := fx.service.BeginGoogleLogin(ctx, &usecase.BeginGoogleLoginInput{
		SessionID:     sessionID,
		RequestedRole: role,
	})
	require.NoError(t, err)

	code := "code-" + uuid.New().String()
	fx.oauth.registerCode(code, profile)

	output, err := fx.service.CompleteGoogleLogin(ctx, &usecase.CompleteGoogleLoginInput{
		SessionID: sessionID,
		State:     lastState(begin.AuthorizationURL),
		Code:      code,
	})
	require.NoError(t, err)

	return output
}

func TestAuthService_Register_Learner(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	output, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Name:      "Alice Chen",
		Email:     "alice@example.com",
		Password:  "Password123!",
		Role:      entity.RoleLearner,
		SessionID: "sess-1",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.RoleLearner, output.Account.Role)
	assert.NotEmpty(t, output.Token)
	assert.Equal(t, 1, fx.store.accountCount())
	assert.Equal(t, 0, fx.store.profileCount())

	record, err := fx.sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, record.Authenticated())
	assert.Equal(t, output.Account.ID, record.AccountID)
	assert.Equal(t, "alice@example.com", record.Email)
}

func TestAuthService_Register_ResponseOmitsCredentialMaterial(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	output, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Name:      "Alice Chen",
		Email:     "alice@example.com",
		Password:  "Password123!",
		Role:      entity.RoleLearner,
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	body, err := json.Marshal(output)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "hashed:")
	assert.NotContains(t, string(body), "PasswordHash")
	assert.Contains(t, string(body), `"email":"alice@example.com"`)

	check, err := fx.service.CheckAuthentication(ctx, &usecase.CheckAuthInput{SessionID: "sess-1"})
	require.NoError(t, err)
	body, err = json.Marshal(check)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "hashed:")
}

func TestAuthService_Register_InstructorGetsEmptyProfile(t *testing.T) {
	fx := createTestAuthService(t)

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Name:     "Bob Instructor",
		Email:    "bob@example.com",
		Password: "Password123!",
		Role:     entity.RoleInstructor,
	})

	require.NoError(t, err)
	require.Equal(t, 1, fx.store.profileCount())

	profile, err := (&fakeProfileRepo{store: fx.store}).FindByAccountID(context.Background(), output.Account.ID)
	require.NoError(t, err)
	assert.Zero(t, profile.YearsExperience)
	assert.Zero(t, profile.HourlyRate)
	assert.Empty(t, profile.Bio)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	input := &usecase.RegisterInput{
		Name:     "Alice Chen",
		Email:    "alice@example.com",
		Password: "Password123!",
		Role:     entity.RoleLearner,
	}
	_, err := fx.service.Register(ctx, input)
	require.NoError(t, err)

	_, err = fx.service.Register(ctx, input)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyRegistered)
	assert.Equal(t, 1, fx.store.accountCount())
}

func TestAuthService_Register_InvalidRole(t *testing.T) {
	fx := createTestAuthService(t)

	_, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "Password123!",
		Role:     entity.Role("admin"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	assert.Equal(t, 0, fx.store.accountCount())
}

func TestAuthService_Login_Success(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	_, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Name:     "Alice Chen",
		Email:    "alice@example.com",
		Password: "Password123!",
		Role:     entity.RoleLearner,
	})
	require.NoError(t, err)

	output, err := fx.service.Login(ctx, &usecase.LoginInput{
		Email:     "alice@example.com",
		Password:  "Password123!",
		SessionID: "sess-login",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, output.Token)

	record, err := fx.sessions.Get(ctx, "sess-login")
	require.NoError(t, err)
	assert.True(t, record.Authenticated())
}

// All local login failures must collapse into the same error so responses never
// reveal whether the email exists or which check failed.
func TestAuthService_Login_IndistinguishableFailures(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	_, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Name:     "Alice Chen",
		Email:    "alice@example.com",
		Password: "Password123!",
		Role:     entity.RoleLearner,
	})
	require.NoError(t, err)

	// External-only account: no password hash stored.
	completeGoogleLogin(t, fx, "sess-x", entity.RoleLearner,
		googleProfile("sub-ext", "ext@example.com", "Ext Only"))

	cases := []struct {
		name  string
		input *usecase.LoginInput
	}{
		{"unknown email", &usecase.LoginInput{Email: "nobody@example.com", Password: "Password123!"}},
		{"wrong password", &usecase.LoginInput{Email: "alice@example.com", Password: "WrongPassword!"}},
		{"external-only account", &usecase.LoginInput{Email: "ext@example.com", Password: "Password123!"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.service.Login(ctx, tc.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
			assert.Equal(t, domainerrors.ErrInvalidCredentials, err)
		})
	}
}

func TestAuthService_BeginGoogleLogin_SavesPendingFields(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	output, err := fx.service.BeginGoogleLogin(ctx, &usecase.BeginGoogleLoginInput{
		SessionID:     "sess-g",
		RequestedRole: entity.RoleInstructor,
		RedirectTo:    "/dashboard",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, lastState(output.AuthorizationURL))

	record, err := fx.sessions.Get(ctx, "sess-g")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleInstructor, record.PendingRole)
	assert.Equal(t, "/dashboard", record.PendingRedirect)
	assert.False(t, record.Authenticated())
}

func TestAuthService_BeginGoogleLogin_InvalidRole(t *testing.T) {
	fx := createTestAuthService(t)

	_, err := fx.service.BeginGoogleLogin(context.Background(), &usecase.BeginGoogleLoginInput{
		SessionID:     "sess-g",
		RequestedRole: entity.Role("superuser"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestAuthService_CompleteGoogleLogin_InvalidState(t *testing.T) {
	fx := createTestAuthService(t)

	_, err := fx.service.CompleteGoogleLogin(context.Background(), &usecase.CompleteGoogleLoginInput{
		SessionID: "sess-g",
		State:     "forged-state",
		Code:      "code",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestAuthService_CompleteGoogleLogin_FirstSignIn(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	output := completeGoogleLogin(t, fx, "sess-g", entity.RoleInstructor,
		googleProfile("sub-1", "carol@example.com", "Carol Wong"))

	assert.Equal(t, "Carol Wong", output.Account.Name)
	assert.Equal(t, entity.RoleInstructor, output.Account.Role)

	created, err := (&fakeAccountRepo{store: fx.store}).FindByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.False(t, created.HasPassword())
	assert.Equal(t, 1, fx.store.accountCount())
	assert.Equal(t, 1, fx.store.connCount())
	assert.Equal(t, 1, fx.store.profileCount())

	assert.True(t, strings.HasPrefix(output.RedirectTo, "https://app.drivehub.test/oauth-success?token="))
	assert.Contains(t, output.RedirectTo, output.Token)

	// The snapshot replaced the record, consuming the pending fields.
	record, err := fx.sessions.Get(ctx, "sess-g")
	require.NoError(t, err)
	assert.True(t, record.Authenticated())
	assert.Empty(t, record.PendingRole)
	assert.Empty(t, record.PendingRedirect)
}

func TestAuthService_CompleteGoogleLogin_ProtocolRelativeRedirectFallsBack(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	begin, err := fx.service.BeginGoogleLogin(ctx, &usecase.BeginGoogleLoginInput{
		SessionID:     "sess-g",
		RequestedRole: entity.RoleLearner,
		RedirectTo:    "//evil.example/phish",
	})
	require.NoError(t, err)

	fx.oauth.registerCode("code-1", googleProfile("sub-1", "erin@example.com", "Erin Liu"))

	output, err := fx.service.CompleteGoogleLogin(ctx, &usecase.CompleteGoogleLoginInput{
		SessionID: "sess-g",
		State:     lastState(begin.AuthorizationURL),
		Code:      "code-1",
	})

	require.NoError(t, err)
	assert.NotContains(t, output.RedirectTo, "evil.example")
	assert.True(t, strings.HasPrefix(output.RedirectTo, "https://app.drivehub.test/oauth-success?token="))
}

func TestAuthService_CompleteGoogleLogin_DefaultNameAndRedirect(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	begin, err := fx.service.BeginGoogleLogin(ctx, &usecase.BeginGoogleLoginInput{
		SessionID:     "sess-g",
		RequestedRole: entity.RoleLearner,
		RedirectTo:    "/lessons?tab=upcoming",
	})
	require.NoError(t, err)

	fx.oauth.registerCode("code-1", googleProfile("sub-1", "dave@example.com", ""))

	output, err := fx.service.CompleteGoogleLogin(ctx, &usecase.CompleteGoogleLoginInput{
		SessionID: "sess-g",
		State:     lastState(begin.AuthorizationURL),
		Code:      "code-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "New member", output.Account.Name)
	assert.True(t, strings.HasPrefix(output.RedirectTo, "https://app.drivehub.test/lessons?tab=upcoming&token="))
}

// A repeat login through the same external identity must be idempotent: the
// account is reused and only the stored provider tokens change.
func TestAuthService_CompleteGoogleLogin_RepeatIsIdempotent(t *testing.T) {
	fx := createTestAuthService(t)

	first := completeGoogleLogin(t, fx, "sess-a", entity.RoleLearner,
		googleProfile("sub-1", "carol@example.com", "Carol Wong"))

	// Second login presents no refresh token; the stored one must be overwritten anyway.
	repeat := googleProfile("sub-1", "carol@example.com", "Carol Wong")
	repeat.AccessToken = "ya29.newer"
	repeat.RefreshToken = ""
	second := completeGoogleLogin(t, fx, "sess-b", entity.RoleLearner, repeat)

	assert.Equal(t, first.Account.ID, second.Account.ID)
	assert.Equal(t, 1, fx.store.accountCount())
	assert.Equal(t, 1, fx.store.connCount())

	conns, err := fx.tx.oauthRepo.ListByAccountID(context.Background(), first.Account.ID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "ya29.newer", conns[0].AccessToken)
	assert.Empty(t, conns[0].RefreshToken)
}

func TestAuthService_CompleteGoogleLogin_AttachesToExistingEmail(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	registered, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Name:     "Alice Chen",
		Email:    "alice@example.com",
		Password: "Password123!",
		Role:     entity.RoleLearner,
	})
	require.NoError(t, err)

	output := completeGoogleLogin(t, fx, "sess-g", "",
		googleProfile("sub-alice", "alice@example.com", "Alice G"))

	assert.Equal(t, registered.Account.ID, output.Account.ID)
	assert.Equal(t, 1, fx.store.accountCount())
	assert.Equal(t, 1, fx.store.connCount())
}

func TestAuthService_CompleteGoogleLogin_MissingEmail(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	begin, err := fx.service.BeginGoogleLogin(ctx, &usecase.BeginGoogleLoginInput{
		SessionID:     "sess-g",
		RequestedRole: entity.RoleLearner,
	})
	require.NoError(t, err)

	fx.oauth.registerCode("code-1", googleProfile("sub-1", "", "No Email"))

	_, err = fx.service.CompleteGoogleLogin(ctx, &usecase.CompleteGoogleLoginInput{
		SessionID: "sess-g",
		State:     lastState(begin.AuthorizationURL),
		Code:      "code-1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrMissingEmail)
	assert.Equal(t, 0, fx.store.accountCount())
	assert.Equal(t, 0, fx.store.connCount())
}

// Without a role choice, a brand-new external identity must fail and leave no
// partial state behind.
func TestAuthService_CompleteGoogleLogin_RoleNotSelected(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	begin, err := fx.service.BeginGoogleLogin(ctx, &usecase.BeginGoogleLoginInput{
		SessionID: "sess-g",
	})
	require.NoError(t, err)

	fx.oauth.registerCode("code-1", googleProfile("sub-1", "newbie@example.com", "Newbie"))

	_, err = fx.service.CompleteGoogleLogin(ctx, &usecase.CompleteGoogleLoginInput{
		SessionID: "sess-g",
		State:     lastState(begin.AuthorizationURL),
		Code:      "code-1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrRoleNotSelected)
	assert.Equal(t, 0, fx.store.accountCount())
	assert.Equal(t, 0, fx.store.connCount())
	assert.Equal(t, 0, fx.store.profileCount())
}

// When a competing login commits the same link first, the resolver retries once
// and lands on the winner's rows without surfacing the conflict.
func TestAuthService_ResolveExternal_ConflictRetry(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	profile := googleProfile("sub-race", "race@example.com", "Racer")

	var winnerID uuid.UUID
	fx.tx.oauthRepo.failNextCreate = true
	fx.tx.afterRollback = func() {
		winner := &entity.Account{Name: "Racer", Email: "race@example.com", Role: entity.RoleLearner}
		require.NoError(t, (&fakeAccountRepo{store: fx.store}).Create(ctx, winner))
		require.NoError(t, fx.tx.oauthRepo.Create(ctx, &entity.OAuthConnection{
			AccountID:      winner.ID,
			Provider:       entity.ProviderTypeGoogle,
			ProviderUserID: "sub-race",
			AccessToken:    "ya29.winner",
		}))
		winnerID = winner.ID
	}

	account, err := fx.impl.resolveExternal(ctx, profile, entity.RoleLearner)

	require.NoError(t, err)
	assert.Equal(t, winnerID, account.ID)
	assert.Equal(t, 1, fx.store.accountCount())
	assert.Equal(t, 1, fx.store.connCount())
}

// Two simultaneous first logins for the same external identity must converge on
// exactly one account and one link.
func TestAuthService_ResolveExternal_ConcurrentDuplicate(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	profile := googleProfile("sub-dup", "dup@example.com", "Duplicated")

	var wg sync.WaitGroup
	results := make([]*entity.Account, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = fx.impl.resolveExternal(ctx, profile, entity.RoleLearner)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].ID, results[1].ID)
	assert.Equal(t, 1, fx.store.accountCount())
	assert.Equal(t, 1, fx.store.connCount())
}

func TestAuthService_Logout_ThenCheckReportsUnauthenticated(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	_, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Name:      "Alice Chen",
		Email:     "alice@example.com",
		Password:  "Password123!",
		Role:      entity.RoleLearner,
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	check, err := fx.service.CheckAuthentication(ctx, &usecase.CheckAuthInput{SessionID: "sess-1"})
	require.NoError(t, err)
	require.True(t, check.Authenticated)

	require.NoError(t, fx.service.Logout(ctx, "sess-1"))

	check, err = fx.service.CheckAuthentication(ctx, &usecase.CheckAuthInput{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.False(t, check.Authenticated)
	assert.Nil(t, check.Account)

	// Logging out again is not an error.
	assert.NoError(t, fx.service.Logout(ctx, "sess-1"))
}

func TestAuthService_CheckAuthentication_BearerFirst(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	output, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Name:     "Alice Chen",
		Email:    "alice@example.com",
		Password: "Password123!",
		Role:     entity.RoleLearner,
	})
	require.NoError(t, err)

	check, err := fx.service.CheckAuthentication(ctx, &usecase.CheckAuthInput{BearerToken: output.Token})
	require.NoError(t, err)
	require.True(t, check.Authenticated)
	assert.Equal(t, output.Account.ID, check.Account.ID)

	// A garbage bearer token falls back to the session channel.
	_, err = fx.service.Login(ctx, &usecase.LoginInput{
		Email:     "alice@example.com",
		Password:  "Password123!",
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	check, err = fx.service.CheckAuthentication(ctx, &usecase.CheckAuthInput{
		BearerToken: "garbage",
		SessionID:   "sess-1",
	})
	require.NoError(t, err)
	assert.True(t, check.Authenticated)

	// Neither channel present.
	check, err = fx.service.CheckAuthentication(ctx, &usecase.CheckAuthInput{})
	require.NoError(t, err)
	assert.False(t, check.Authenticated)
}
