// Package session persists the bearer token and cached profile that survive
// between runs of the client.
package session

import (
	"errors"
	"fmt"

	"github.com/clickreserve/click/internal/domain"
)

// ErrNotFound is returned by Get when no complete session is persisted.
var ErrNotFound = errors.New("no session")

// Namespace separates sessions that must not interfere with each other.
type Namespace string

const (
	// NamespaceUser holds the general user session.
	NamespaceUser Namespace = "user"
	// NamespaceAgent holds the agent dashboard session.
	NamespaceAgent Namespace = "agent"
)

// TokenKey is the storage key of the namespace's bearer token.
func (n Namespace) TokenKey() string {
	if n == NamespaceAgent {
		return "agentToken"
	}
	return "userToken"
}

// ProfileKey is the storage key of the namespace's serialized profile.
func (n Namespace) ProfileKey() string {
	if n == NamespaceAgent {
		return "agentUser"
	}
	return "userData"
}

// Session is the persisted pair of token and profile snapshot.
type Session struct {
	Token string
	User  *domain.UserProfile
}

// Store is the storage capability a session layer needs. Each Store is bound
// to a single namespace.
type Store interface {
	// Get returns the persisted session or ErrNotFound.
	Get() (*Session, error)
	// Set replaces the persisted session.
	Set(s *Session) error
	// Clear removes the persisted session. Clearing an empty store is not an error.
	Clear() error
}

// Backend names accepted by Open.
const (
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Open returns the Store for the given backend and namespace. path is only
// used by the sqlite backend.
func Open(backend, path string, ns Namespace) (Store, error) {
	switch backend {
	case BackendKeyring, "":
		return NewKeyringStore(ns), nil
	case BackendSQLite:
		return OpenSQLiteStore(path, ns)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q (want keyring, sqlite or memory)", backend)
	}
}

func validate(s *Session) error {
	if s == nil || s.Token == "" {
		return errors.New("session token is empty")
	}
	if s.User == nil {
		return errors.New("session profile is missing")
	}
	return nil
}
