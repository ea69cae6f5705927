package session

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/clickreserve/click/internal/domain"
)

func testProfile() *domain.UserProfile {
	return &domain.UserProfile{
		ID:            "42",
		Name:          "Test User",
		Email:         "test@example.com",
		Phone:         "+972501234567",
		EmailVerified: true,
		Extra: map[string]json.RawMessage{
			"city": json.RawMessage(`"Ramallah"`),
		},
	}
}

func storeFactories(t *testing.T) map[string]func(ns Namespace) Store {
	t.Helper()
	keyring.MockInit()

	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	return map[string]func(ns Namespace) Store{
		"memory": func(ns Namespace) Store { return NewMemoryStore() },
		"keyring": func(ns Namespace) Store {
			return NewKeyringStore(ns)
		},
		"sqlite": func(ns Namespace) Store {
			s, err := OpenSQLiteStore(dbPath, ns)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(NamespaceUser)
			require.NoError(t, s.Clear())

			_, err := s.Get()
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(&Session{Token: "t1", User: testProfile()}))

			got, err := s.Get()
			require.NoError(t, err)
			assert.Equal(t, "t1", got.Token)
			want, err := json.Marshal(testProfile())
			require.NoError(t, err)
			stored, err := json.Marshal(got.User)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(stored))

			require.NoError(t, s.Set(&Session{Token: "t2", User: testProfile()}))
			got, err = s.Get()
			require.NoError(t, err)
			assert.Equal(t, "t2", got.Token)

			require.NoError(t, s.Clear())
			_, err = s.Get()
			assert.ErrorIs(t, err, ErrNotFound)

			// clearing twice is fine
			require.NoError(t, s.Clear())
		})
	}
}

func TestStore_RejectsIncompleteSession(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(NamespaceUser)
			assert.Error(t, s.Set(&Session{Token: "", User: testProfile()}))
			assert.Error(t, s.Set(&Session{Token: "t", User: nil}))
			assert.Error(t, s.Set(nil))
		})
	}
}

func TestStore_NamespacesAreDisjoint(t *testing.T) {
	for _, name := range []string{"keyring", "sqlite"} {
		t.Run(name, func(t *testing.T) {
			newStore := storeFactories(t)[name]
			user := newStore(NamespaceUser)
			agent := newStore(NamespaceAgent)
			require.NoError(t, user.Clear())
			require.NoError(t, agent.Clear())

			require.NoError(t, user.Set(&Session{Token: "user-token", User: testProfile()}))
			require.NoError(t, agent.Set(&Session{Token: "agent-token", User: testProfile()}))

			require.NoError(t, agent.Clear())

			got, err := user.Get()
			require.NoError(t, err)
			assert.Equal(t, "user-token", got.Token)

			_, err = agent.Get()
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestKeyringStore_MissingProfileMeansNoSession(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(service, NamespaceUser.TokenKey(), "orphan"))
	defer keyring.Delete(service, NamespaceUser.TokenKey())

	_, err := NewKeyringStore(NamespaceUser).Get()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyringStore_FailedProfileWriteLeavesNoToken(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore(NamespaceUser)
	store.set = func(svc, user, password string) error {
		if user == NamespaceUser.ProfileKey() {
			return errors.New("keychain locked")
		}
		return keyring.Set(svc, user, password)
	}

	err := store.Set(&Session{Token: "t1", User: testProfile()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save profile")

	_, err = keyring.Get(service, NamespaceUser.TokenKey())
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestNamespaceKeys(t *testing.T) {
	assert.Equal(t, "userToken", NamespaceUser.TokenKey())
	assert.Equal(t, "userData", NamespaceUser.ProfileKey())
	assert.Equal(t, "agentToken", NamespaceAgent.TokenKey())
	assert.Equal(t, "agentUser", NamespaceAgent.ProfileKey())
}

func TestOpen(t *testing.T) {
	keyring.MockInit()

	s, err := Open(BackendMemory, "", NamespaceUser)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open("", "", NamespaceUser)
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, s)

	_, err = Open(BackendSQLite, "", NamespaceUser)
	assert.Error(t, err)

	_, err = Open("redis", "", NamespaceUser)
	assert.ErrorContains(t, err, "unknown session backend")
}
