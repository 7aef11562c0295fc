package store

import "sync"

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	mu     sync.Mutex
	fields map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{fields: map[string]string{}}
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[key] = value
	return nil
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.fields[key]
	return v, ok
}

func (s *MemStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fields, key)
	return nil
}

func (s *MemStore) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = map[string]string{}
	return nil
}
