package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"drivehub/config"
	"drivehub/internal/domain/entity"
	domainerrors "drivehub/internal/domain/errors"
	"drivehub/internal/domain/repository"
	"drivehub/internal/domain/service"

	"github.com/google/uuid"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Frontend: &config.FrontendConfig{BaseURL: "https://app.drivehub.test"},
		Session:  &config.SessionConfig{CookieName: "drivehub_session", TTL: 24 * time.Hour},
	}
}

// memStore is an in-memory stand-in for the durable store. It enforces the same
// uniqueness rules the real schema does, so conflict paths behave like production.
type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]entity.Account
	conns    map[uuid.UUID]entity.OAuthConnection
	profiles map[uuid.UUID]entity.InstructorProfile
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uuid.UUID]entity.Account),
		conns:    make(map[uuid.UUID]entity.OAuthConnection),
		profiles: make(map[uuid.UUID]entity.InstructorProfile),
	}
}

func (s *memStore) snapshot() (map[uuid.UUID]entity.Account, map[uuid.UUID]entity.OAuthConnection, map[uuid.UUID]entity.InstructorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make(map[uuid.UUID]entity.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	conns := make(map[uuid.UUID]entity.OAuthConnection, len(s.conns))
	for k, v := range s.conns {
		conns[k] = v
	}
	profiles := make(map[uuid.UUID]entity.InstructorProfile, len(s.profiles))
	for k, v := range s.profiles {
		profiles[k] = v
	}

	return accounts, conns, profiles
}

func (s *memStore) restore(accounts map[uuid.UUID]entity.Account, conns map[uuid.UUID]entity.OAuthConnection, profiles map[uuid.UUID]entity.InstructorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = accounts
	s.conns = conns
	s.profiles = profiles
}

func (s *memStore) accountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.accounts)
}

func (s *memStore) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.conns)
}

func (s *memStore) profileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.profiles)
}

// --- account repository fake ---

type fakeAccountRepo struct {
	store *memStore
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return &account, nil
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, account := range r.store.accounts {
		if account.Email == email {
			found := account

			return &found, nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.accounts {
		if existing.Email == account.Email {
			return domainerrors.ErrConflict.WrapMessage("email already exists")
		}
	}

	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.store.accounts[account.ID] = *account

	return nil
}

func (r *fakeAccountRepo) Update(_ context.Context, account *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.accounts[account.ID]; !ok {
		return repository.ErrAccountNotFound
	}

	account.UpdatedAt = time.Now()
	r.store.accounts[account.ID] = *account

	return nil
}

// --- oauth connection repository fake ---

type fakeOAuthRepo struct {
	store *memStore

	// failNextCreate makes the next Create report a uniqueness conflict without
	// writing, as if a competing transaction committed the same link first.
	failNextCreate bool
}

func (r *fakeOAuthRepo) FindByProviderUserID(_ context.Context, provider entity.ProviderType, providerUserID string) (*entity.OAuthConnection, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, conn := range r.store.conns {
		if conn.Provider == provider && conn.ProviderUserID == providerUserID {
			found := conn

			return &found, nil
		}
	}

	return nil, repository.ErrConnectionNotFound
}

func (r *fakeOAuthRepo) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*entity.OAuthConnection, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var conns []*entity.OAuthConnection
	for _, conn := range r.store.conns {
		if conn.AccountID == accountID {
			found := conn
			conns = append(conns, &found)
		}
	}

	return conns, nil
}

func (r *fakeOAuthRepo) Create(_ context.Context, conn *entity.OAuthConnection) error {
	if r.failNextCreate {
		r.failNextCreate = false

		return domainerrors.ErrConflict.WrapMessage("external identity already linked")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.conns {
		if existing.Provider == conn.Provider && existing.ProviderUserID == conn.ProviderUserID {
			return domainerrors.ErrConflict.WrapMessage("external identity already linked")
		}
	}

	conn.ID = uuid.New()
	conn.CreatedAt = time.Now()
	conn.UpdatedAt = conn.CreatedAt
	r.store.conns[conn.ID] = *conn

	return nil
}

func (r *fakeOAuthRepo) UpdateTokens(_ context.Context, id uuid.UUID, accessToken, refreshToken string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	conn, ok := r.store.conns[id]
	if !ok {
		return repository.ErrConnectionNotFound
	}

	conn.AccessToken = accessToken
	conn.RefreshToken = refreshToken
	conn.UpdatedAt = time.Now()
	r.store.conns[id] = conn

	return nil
}

// --- instructor profile repository fake ---

type fakeProfileRepo struct {
	store *memStore
}

func (r *fakeProfileRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.InstructorProfile, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	profile, ok := r.store.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}

	return &profile, nil
}

func (r *fakeProfileRepo) FindByAccountID(_ context.Context, accountID uuid.UUID) (*entity.InstructorProfile, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, profile := range r.store.profiles {
		if profile.AccountID == accountID {
			found := profile

			return &found, nil
		}
	}

	return nil, repository.ErrProfileNotFound
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *entity.InstructorProfile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.profiles {
		if existing.AccountID == profile.AccountID {
			return domainerrors.ErrConflict.WrapMessage("account already has an instructor profile")
		}
	}

	profile.ID = uuid.New()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	r.store.profiles[profile.ID] = *profile

	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *entity.InstructorProfile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.profiles[profile.ID]; !ok {
		return repository.ErrProfileNotFound
	}

	profile.UpdatedAt = time.Now()
	r.store.profiles[profile.ID] = *profile

	return nil
}

// --- transaction manager fake ---

// fakeTxManager serializes transactions and restores the store snapshot when the
// callback fails, mimicking a rollback.
type fakeTxManager struct {
	store     *memStore
	oauthRepo *fakeOAuthRepo
	txMu      sync.Mutex

	// afterRollback, when set, runs once after a failed transaction is undone.
	// Tests use it to commit a competing writer's rows between the failed
	// attempt and the retry.
	afterRollback func()
}

func newFakeTxManager(store *memStore) *fakeTxManager {
	return &fakeTxManager{
		store:     store,
		oauthRepo: &fakeOAuthRepo{store: store},
	}
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	accounts, conns, profiles := tm.store.snapshot()

	if err := fn(&fakeRepoFactory{store: tm.store, oauthRepo: tm.oauthRepo}); err != nil {
		tm.store.restore(accounts, conns, profiles)

		if tm.afterRollback != nil {
			hook := tm.afterRollback
			tm.afterRollback = nil
			hook()
		}

		return err
	}

	return nil
}

type fakeRepoFactory struct {
	store     *memStore
	oauthRepo *fakeOAuthRepo
}

func (f *fakeRepoFactory) AccountRepo() repository.AccountRepository {
	return &fakeAccountRepo{store: f.store}
}

func (f *fakeRepoFactory) OAuthRepo() repository.OAuthRepository {
	return f.oauthRepo
}

func (f *fakeRepoFactory) ProfileRepo() repository.ProfileRepository {
	return &fakeProfileRepo{store: f.store}
}

// --- stateless collaborator fakes ---

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

type fakeTokenService struct {
	mu     sync.Mutex
	issued map[string]service.Claims
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{issued: make(map[string]service.Claims)}
}

func (s *fakeTokenService) Issue(account *entity.Account) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := "token-" + uuid.New().String()
	s.issued[token] = service.Claims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
	}

	return token, nil
}

func (s *fakeTokenService) Verify(tokenString string) (*service.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claims, ok := s.issued[tokenString]
	if !ok {
		return nil, domainerrors.ErrTokenInvalid
	}

	return &claims, nil
}

func (s *fakeTokenService) TokenDuration() time.Duration {
	return 7 * 24 * time.Hour
}

type fakeSessionStore struct {
	mu      sync.Mutex
	records map[string]entity.SessionRecord
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{records: make(map[string]entity.SessionRecord)}
}

func (s *fakeSessionStore) Get(_ context.Context, sessionID string) (*entity.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[sessionID]
	if !ok {
		return nil, nil
	}

	return &record, nil
}

func (s *fakeSessionStore) Save(_ context.Context, sessionID string, record *entity.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[sessionID] = *record

	return nil
}

func (s *fakeSessionStore) Destroy(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, sessionID)

	return nil
}

type fakeOAuthService struct {
	mu       sync.Mutex
	states   map[string]bool
	profiles map[string]*service.OAuthProfile
}

func newFakeOAuthService() *fakeOAuthService {
	return &fakeOAuthService{
		states:   make(map[string]bool),
		profiles: make(map[string]*service.OAuthProfile),
	}
}

// registerCode maps an authorization code to the profile Exchange will return.
func (s *fakeOAuthService) registerCode(code string, profile *service.OAuthProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[code] = profile
}

func (s *fakeOAuthService) BuildAuthorizationURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := uuid.New().String()
	s.states[state] = true

	return "https://accounts.google.com/o/oauth2/v2/auth?state=" + state
}

func (s *fakeOAuthService) ValidateState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.states[state] {
		return false
	}
	delete(s.states, state)

	return true
}

func (s *fakeOAuthService) Exchange(_ context.Context, code string) (*service.OAuthProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[code]
	if !ok {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("unknown authorization code")
	}

	return profile, nil
}

func (s *fakeOAuthService) Provider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

// lastState digs the state parameter back out of an authorization URL.
func lastState(authorizationURL string) string {
	idx := strings.LastIndex(authorizationURL, "state=")
	if idx < 0 {
		return ""
	}

	return authorizationURL[idx+len("state="):]
}
