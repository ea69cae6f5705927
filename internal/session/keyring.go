package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/clickreserve/click/internal/domain"
)

const (
	service = "click-cli"
)

// KeyringStore persists the session securely in the OS keychain/credential manager
type KeyringStore struct {
	ns  Namespace
	set func(service, user, password string) error
}

// NewKeyringStore returns a keyring-backed store for ns
func NewKeyringStore(ns Namespace) *KeyringStore {
	return &KeyringStore{ns: ns, set: keyring.Set}
}

// Get retrieves the token and profile from the keychain
func (k *KeyringStore) Get() (*Session, error) {
	token, err := keyring.Get(service, k.ns.TokenKey())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	data, err := keyring.Get(service, k.ns.ProfileKey())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var user domain.UserProfile
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to parse stored profile: %w", err)
	}

	return &Session{Token: token, User: &user}, nil
}

// Set saves the token and profile in the keychain
func (k *KeyringStore) Set(s *Session) error {
	if err := validate(s); err != nil {
		return err
	}

	data, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := k.set(service, k.ns.TokenKey(), s.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := k.set(service, k.ns.ProfileKey(), string(data)); err != nil {
		// A token without its profile would read back as a broken session.
		if cerr := k.Clear(); cerr != nil {
			return fmt.Errorf("failed to save profile: %w (cleanup: %v)", err, cerr)
		}
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Clear removes both keys from the keychain
func (k *KeyringStore) Clear() error {
	for _, key := range []string{k.ns.TokenKey(), k.ns.ProfileKey()} {
		if err := keyring.Delete(service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}
