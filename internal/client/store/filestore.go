package store

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	cryptohelper "github.com/willr196/vergo-db-sub002/internal/shared/crypto"
)

// keyLength defines AES-256 key size.
const keyLength = 32

const (
	keyFileName  = "vault.key"
	dataFileName = "credentials.enc"
)

// FileStore keeps all credential fields in a single JSON map sealed with
// AES-256-GCM. The sealing key is random, generated on first use and kept
// in a separate 0600 file, so the credential file itself is never readable
// as plaintext general storage.
type FileStore struct {
	mu       sync.Mutex
	keyPath  string
	dataPath string
}

// NewFileStore opens (or initializes) the credential store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	s := &FileStore{
		keyPath:  filepath.Join(dir, keyFileName),
		dataPath: filepath.Join(dir, dataFileName),
	}
	if _, err := s.loadKey(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields := s.load()
	fields[key] = value
	return s.save(fields)
}

// Get returns the stored value for key. Any storage or unseal failure is
// reported as absent.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.load()[key]
	return v, ok
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields := s.load()
	if _, ok := fields[key]; !ok {
		return nil
	}
	delete(fields, key)
	return s.save(fields)
}

// Wipe removes every stored field in one file rewrite.
func (s *FileStore) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.dataPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) load() map[string]string {
	fields := map[string]string{}
	key, err := s.loadKey()
	if err != nil {
		return fields
	}
	sealed, err := os.ReadFile(s.dataPath)
	if err != nil {
		return fields
	}
	plain, err := cryptohelper.DecryptAESGCM(key, sealed, []byte(dataFileName))
	if err != nil {
		// Tampered or corrupt store reads as empty.
		return fields
	}
	if err := json.Unmarshal(plain, &fields); err != nil {
		return map[string]string{}
	}
	return fields
}

func (s *FileStore) save(fields map[string]string) error {
	key, err := s.loadKey()
	if err != nil {
		return err
	}
	plain, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	sealed, err := cryptohelper.EncryptAESGCM(key, plain, []byte(dataFileName))
	if err != nil {
		return err
	}
	tmp := s.dataPath + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.dataPath)
}

// loadKey reads the sealing key, generating one on first use. The key file
// is base64 encoded with 0600 perms.
func (s *FileStore) loadKey() ([]byte, error) {
	b, err := os.ReadFile(s.keyPath)
	if os.IsNotExist(err) {
		return s.generateKey()
	}
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return nil, err
	}
	if len(key) != keyLength {
		return nil, errors.New("invalid key length")
	}
	return key, nil
}

func (s *FileStore) generateKey() ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	b64 := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(s.keyPath, []byte(b64), 0600); err != nil {
		return nil, err
	}
	return key, nil
}
