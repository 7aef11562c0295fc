package store

// Logical credential fields. Every piece of session state the client
// persists lives under one of these keys.
const (
	KeyAccessToken      = "access_token"
	KeyRefreshToken     = "refresh_token"
	KeyUserType         = "user_type"
	KeyUserProfile      = "user_profile"
	KeyLastActiveAt     = "last_active_at"
	KeyBiometricEnabled = "biometric_enabled"
	KeyBiometricAsked   = "biometric_asked"
)

// SessionKeys lists the fields removed by a session wipe. Wipe clears the
// biometric flags too: a torn-down session must not leave a stale opt-in
// behind for the next account.
var SessionKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyUserType,
	KeyUserProfile,
	KeyLastActiveAt,
	KeyBiometricEnabled,
	KeyBiometricAsked,
}

// Store is the secure credential store. Get reports absence instead of
// returning an error: callers degrade to "not authenticated" on any
// storage failure rather than crashing.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, bool)
	Delete(key string) error
	Wipe() error
}
