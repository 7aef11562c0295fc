package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyAccessToken, "tok-1"))
	require.NoError(t, s.Set(KeyUserType, "jobseeker"))

	v, ok := s.Get(KeyAccessToken)
	require.True(t, ok)
	require.Equal(t, "tok-1", v)

	// Values survive a reopen.
	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	v, ok = s2.Get(KeyUserType)
	require.True(t, ok)
	require.Equal(t, "jobseeker", v)
}

func TestFileStoreDeleteAndWipe(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyAccessToken, "a"))
	require.NoError(t, s.Set(KeyRefreshToken, "r"))
	require.NoError(t, s.Delete(KeyAccessToken))
	_, ok := s.Get(KeyAccessToken)
	require.False(t, ok)

	require.NoError(t, s.Wipe())
	for _, key := range SessionKeys {
		_, ok := s.Get(key)
		require.False(t, ok, "field %s should be absent after wipe", key)
	}
	// Wiping an already-empty store is fine.
	require.NoError(t, s.Wipe())
}

func TestFileStoreNeverPlaintext(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyRefreshToken, "super-secret-refresh"))

	raw, err := os.ReadFile(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "super-secret-refresh")
}

func TestFileStoreCorruptionReadsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAccessToken, "tok"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.enc"), []byte("garbage"), 0600))
	_, ok := s.Get(KeyAccessToken)
	require.False(t, ok)

	// The store stays writable after corruption.
	require.NoError(t, s.Set(KeyAccessToken, "tok-2"))
	v, ok := s.Get(KeyAccessToken)
	require.True(t, ok)
	require.Equal(t, "tok-2", v)
}

func TestParseBoolFlag(t *testing.T) {
	for _, in := range []string{"true", "TRUE", "1", "yes", "Yes", "on", " true "} {
		require.True(t, ParseBoolFlag(in), "input %q", in)
	}
	for _, in := range []string{"", "false", "0", "no", "off", "enabled", "2"} {
		require.False(t, ParseBoolFlag(in), "input %q", in)
	}
}
