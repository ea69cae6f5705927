package session

import (
	"sync"
)

// MemoryStore keeps the session in process memory. It is used by tests and
// by the memory backend for throwaway runs.
type MemoryStore struct {
	mu      sync.Mutex
	session *Session
	clears  int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, ErrNotFound
	}
	return &Session{Token: m.session.Token, User: m.session.User.Clone()}, nil
}

func (m *MemoryStore) Set(s *Session) error {
	if err := validate(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = &Session{Token: s.Token, User: s.User.Clone()}
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	m.clears++
	return nil
}

// Clears reports how many times Clear was called.
func (m *MemoryStore) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}
