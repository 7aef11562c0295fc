package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/willr196/vergo-db-sub002/internal/client/api"
	"github.com/willr196/vergo-db-sub002/internal/client/biometric"
	"github.com/willr196/vergo-db-sub002/internal/client/store"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

// DefaultIdleTimeout is the maximum inactivity before a restored session
// is discarded.
const DefaultIdleTimeout = 30 * 24 * time.Hour

var errMissingTokens = errors.New("login response missing token pair")

// Manager orchestrates login, registration, logout, profile operations and
// session restoration. The credential store is the single source of truth
// for token and session state; the manager never caches tokens itself.
type Manager struct {
	api   *api.Client
	creds store.Store
	gate  biometric.Gate
	log   zerolog.Logger

	// IdleTimeout and Now are settable before first use; tests inject a
	// fixed clock through Now.
	IdleTimeout time.Duration
	Now         func() time.Time
}

func NewManager(client *api.Client, creds store.Store, gate biometric.Gate, log zerolog.Logger) *Manager {
	return &Manager{
		api:         client,
		creds:       creds,
		gate:        gate,
		log:         log,
		IdleTimeout: DefaultIdleTimeout,
		Now:         time.Now,
	}
}

// Session is the authenticated outcome of login, registration or restore.
type Session struct {
	UserType models.UserType
	User     models.User
}

// RegisterResult distinguishes an immediate session from an account that
// still needs email verification. Pending is a signal to the caller, not a
// session state.
type RegisterResult struct {
	Pending bool
	Session Session
}

// RegisterRequest carries the fields common to both account kinds.
// Company is only meaningful for client registrations.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
}

// RestoreResult reports whether a stored session was honored on app start.
type RestoreResult struct {
	Authenticated bool
	UserType      models.UserType
	User          models.User
}

// authResponse is the backend's login/registration success payload.
type authResponse struct {
	Token               string      `json:"token"`
	RefreshToken        string      `json:"refreshToken"`
	User                models.User `json:"user"`
	PendingVerification bool        `json:"pending_verification"`
}

type profileResponse struct {
	User models.User `json:"user"`
}

// Login authenticates against the portal for the given account kind and
// persists the token pair and session record.
func (m *Manager) Login(ctx context.Context, ut models.UserType, email, password string) (Session, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := m.api.Post(ctx, authPath(ut, "login"), body, &resp); err != nil {
		return Session{}, err
	}
	if resp.Token == "" || resp.RefreshToken == "" {
		return Session{}, errMissingTokens
	}
	if err := m.storeSession(ut, resp); err != nil {
		return Session{}, err
	}
	m.log.Info().Str("user_type", string(ut)).Msg("logged in")
	return Session{UserType: ut, User: resp.User}, nil
}

// RegisterJobSeeker creates a job-seeker account. Seeker accounts receive
// tokens immediately.
func (m *Manager) RegisterJobSeeker(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	return m.register(ctx, models.UserTypeJobSeeker, req)
}

// RegisterClient creates a client-company account. The backend may answer
// with a pending-verification outcome instead of tokens.
func (m *Manager) RegisterClient(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	return m.register(ctx, models.UserTypeClient, req)
}

func (m *Manager) register(ctx context.Context, ut models.UserType, req RegisterRequest) (RegisterResult, error) {
	var resp authResponse
	if err := m.api.Post(ctx, authPath(ut, "register"), req, &resp); err != nil {
		return RegisterResult{}, err
	}
	if resp.PendingVerification {
		return RegisterResult{Pending: true}, nil
	}
	if resp.Token == "" || resp.RefreshToken == "" {
		return RegisterResult{}, errMissingTokens
	}
	if err := m.storeSession(ut, resp); err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{Session: Session{UserType: ut, User: resp.User}}, nil
}

// Logout revokes the refresh token best-effort and unconditionally wipes
// the credential store. Backend failures never block local teardown.
func (m *Manager) Logout(ctx context.Context) error {
	if refresh, ok := m.creds.Get(store.KeyRefreshToken); ok && refresh != "" {
		if err := m.api.Post(ctx, "/api/v1/auth/logout", map[string]string{"refreshToken": refresh}, nil); err != nil {
			m.log.Debug().Err(err).Msg("logout call failed, proceeding with local teardown")
		}
	}
	return m.creds.Wipe()
}

// CurrentUser fetches the profile and overwrites the stored snapshot.
func (m *Manager) CurrentUser(ctx context.Context) (models.User, error) {
	var resp profileResponse
	if err := m.api.Get(ctx, "/api/v1/profile", &resp); err != nil {
		return models.User{}, err
	}
	m.saveProfile(resp.User)
	return resp.User, nil
}

// UpdateProfile submits the full profile and, on success, overwrites the
// stored snapshot wholesale. A failed update leaves the previous snapshot
// untouched.
func (m *Manager) UpdateProfile(ctx context.Context, user models.User) (models.User, error) {
	var resp profileResponse
	if err := m.api.Put(ctx, "/api/v1/profile", user, &resp); err != nil {
		return models.User{}, err
	}
	m.saveProfile(resp.User)
	return resp.User, nil
}

// Restore re-establishes a persisted session on app start. Every failure
// path resolves to unauthenticated; a stale or corrupt session is wiped
// rather than surfaced as an error.
func (m *Manager) Restore(ctx context.Context) (RestoreResult, error) {
	access, okAccess := m.creds.Get(store.KeyAccessToken)
	refresh, okRefresh := m.creds.Get(store.KeyRefreshToken)
	utStr, okType := m.creds.Get(store.KeyUserType)
	profileJSON, okProfile := m.creds.Get(store.KeyUserProfile)
	lastActive, okLast := m.creds.Get(store.KeyLastActiveAt)
	if !okAccess || !okRefresh || !okType || !okProfile || !okLast || access == "" || refresh == "" {
		return RestoreResult{}, nil
	}

	last, err := time.Parse(time.RFC3339, lastActive)
	if err != nil {
		m.log.Warn().Msg("unreadable last-active timestamp, wiping session")
		_ = m.creds.Wipe()
		return RestoreResult{}, nil
	}
	if m.Now().Sub(last) > m.IdleTimeout {
		m.log.Info().Time("last_active", last).Msg("session idle too long, wiping")
		_ = m.creds.Wipe()
		return RestoreResult{}, nil
	}

	if enabled, _ := m.creds.Get(store.KeyBiometricEnabled); store.ParseBoolFlag(enabled) && m.gate.Available() {
		if err := m.gate.Prompt(ctx, "Unlock your VERGO session"); err != nil {
			m.log.Info().Msg("biometric check failed, wiping session")
			_ = m.creds.Wipe()
			return RestoreResult{}, nil
		}
	}

	var user models.User
	if err := json.Unmarshal([]byte(profileJSON), &user); err != nil {
		m.log.Warn().Msg("corrupt stored profile, wiping session")
		_ = m.creds.Wipe()
		return RestoreResult{}, nil
	}

	if err := m.creds.Set(store.KeyLastActiveAt, m.Now().UTC().Format(time.RFC3339)); err != nil {
		return RestoreResult{}, err
	}
	return RestoreResult{Authenticated: true, UserType: models.UserType(utStr), User: user}, nil
}

// EnableBiometrics opts the user in to the restore-time gate.
func (m *Manager) EnableBiometrics() error {
	if err := m.creds.Set(store.KeyBiometricEnabled, "true"); err != nil {
		return err
	}
	return m.creds.Set(store.KeyBiometricAsked, "true")
}

// DisableBiometrics clears the opt-in but keeps the asked flag so the user
// is not re-prompted.
func (m *Manager) DisableBiometrics() error {
	return m.creds.Set(store.KeyBiometricEnabled, "false")
}

// BiometricsAsked reports whether the user has seen the opt-in prompt.
func (m *Manager) BiometricsAsked() bool {
	v, _ := m.creds.Get(store.KeyBiometricAsked)
	return store.ParseBoolFlag(v)
}

// MarkBiometricsAsked records that the opt-in prompt was shown.
func (m *Manager) MarkBiometricsAsked() error {
	return m.creds.Set(store.KeyBiometricAsked, "true")
}

func (m *Manager) storeSession(ut models.UserType, resp authResponse) error {
	profile, err := json.Marshal(resp.User)
	if err != nil {
		return err
	}
	if err := m.creds.Set(store.KeyAccessToken, resp.Token); err != nil {
		return err
	}
	if err := m.creds.Set(store.KeyRefreshToken, resp.RefreshToken); err != nil {
		return err
	}
	if err := m.creds.Set(store.KeyUserType, string(ut)); err != nil {
		return err
	}
	if err := m.creds.Set(store.KeyUserProfile, string(profile)); err != nil {
		return err
	}
	return m.creds.Set(store.KeyLastActiveAt, m.Now().UTC().Format(time.RFC3339))
}

func (m *Manager) saveProfile(user models.User) {
	profile, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := m.creds.Set(store.KeyUserProfile, string(profile)); err != nil {
		m.log.Debug().Err(err).Msg("could not persist profile snapshot")
	}
}

func authPath(ut models.UserType, op string) string {
	return fmt.Sprintf("/api/v1/auth/%s/%s", ut, op)
}
