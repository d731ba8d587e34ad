// Package google implements the external-provider authorization flow against Google.
package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"drivehub/config"
	"drivehub/internal/domain/entity"
	"drivehub/internal/domain/service"
)

const (
	googleOAuthURL    = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	defaultScopes = "openid profile email"

	// stateTTL bounds how long an authorization round-trip may take.
	stateTTL = 10 * time.Minute
)

// OAuthService handles the Google authorization-code flow.
type OAuthService struct {
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       string

	httpClient *http.Client

	// Single-use state parameters for CSRF protection.
	stateMutex sync.Mutex
	stateStore map[string]time.Time
}

// NewOAuthService creates a new Google OAuth service.
func NewOAuthService(cfg *config.Config) service.OAuthService {
	scopes := defaultScopes
	var clientID, clientSecret, redirectURI string
	if cfg.GoogleOAuth != nil {
		clientID = cfg.GoogleOAuth.ClientID
		clientSecret = cfg.GoogleOAuth.ClientSecret
		redirectURI = cfg.GoogleOAuth.RedirectURI
		if cfg.GoogleOAuth.Scopes != "" {
			scopes = cfg.GoogleOAuth.Scopes
		}
	}

	return &OAuthService{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		scopes:       scopes,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		stateStore:   make(map[string]time.Time),
	}
}

// generateState generates a cryptographically secure random state string.
func generateState() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// BuildAuthorizationURL constructs the Google authorization URL. The state
// parameter it carries is minted here and remembered for the later callback.
func (s *OAuthService) BuildAuthorizationURL() string {
	state := generateState()

	s.stateMutex.Lock()
	s.stateStore[state] = time.Now().Add(stateTTL)
	s.cleanupExpiredStatesLocked()
	s.stateMutex.Unlock()

	params := url.Values{}
	params.Set("client_id", s.clientID)
	params.Set("redirect_uri", s.redirectURI)
	params.Set("scope", s.scopes)
	params.Set("response_type", "code")
	params.Set("access_type", "offline")
	params.Set("state", state)

	return googleOAuthURL + "?" + params.Encode()
}

// ValidateState checks and consumes a state parameter. A state is single-use.
func (s *OAuthService) ValidateState(state string) bool {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	expiry, exists := s.stateStore[state]
	if !exists {
		return false
	}

	// Consume whether expired or not: replayed states never validate.
	delete(s.stateStore, state)

	return time.Now().Before(expiry)
}

// cleanupExpiredStatesLocked removes expired state parameters. Callers hold stateMutex.
func (s *OAuthService) cleanupExpiredStatesLocked() {
	now := time.Now()
	for state, expiry := range s.stateStore {
		if now.After(expiry) {
			delete(s.stateStore, state)
		}
	}
}

// Exchange trades an authorization code for the provider token pair, then fetches the
// asserted user profile with the granted access token.
func (s *OAuthService) Exchange(ctx context.Context, code string) (*service.OAuthProfile, error) {
	accessToken, refreshToken, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.fetchUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	profile.AccessToken = accessToken
	profile.RefreshToken = refreshToken

	return profile, nil
}

// Provider returns the provider this service talks to.
func (s *OAuthService) Provider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

func (s *OAuthService) exchangeCode(ctx context.Context, code string) (accessToken, refreshToken string, err error) {
	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", s.redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to create token exchange request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to exchange code for token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return "", "", errors.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", "", errors.Wrap(err, "failed to decode token response")
	}

	return tokenResponse.AccessToken, tokenResponse.RefreshToken, nil
}

func (s *OAuthService) fetchUserInfo(ctx context.Context, accessToken string) (*service.OAuthProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user info request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, errors.Errorf("user info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, errors.Wrap(err, "failed to decode user info response")
	}

	return &service.OAuthProfile{
		ProviderUserID: googleUser.ID,
		Email:          googleUser.Email,
		Name:           googleUser.Name,
		EmailVerified:  googleUser.VerifiedEmail,
		Provider:       entity.ProviderTypeGoogle,
	}, nil
}
