package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickreserve/click/internal/api"
	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/guard"
	"github.com/clickreserve/click/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newDashboard(t *testing.T, handler http.HandlerFunc) (*Dashboard, *session.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	return New(api.New(srv.URL, store), store, zerolog.Nop()), store
}

func loginHandler(isAgent bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"token": "agent-token", "id": 3, "name": "Sami", "is_agent": isAgent, "email_verified": true,
			},
		})
	}
}

func TestLogin_Agent(t *testing.T) {
	d, store := newDashboard(t, loginHandler(true))

	agent, err := d.Login(context.Background(), "sami@click.ps", "secret1")
	require.NoError(t, err)
	assert.True(t, agent.IsAgent)

	sess, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "agent-token", sess.Token)

	assert.Equal(t, guard.Allow, guard.DecideAgent(d.State()).Action)
}

func TestLogin_NonAgentRejected(t *testing.T) {
	d, store := newDashboard(t, loginHandler(false))

	_, err := d.Login(context.Background(), "user@click.ps", "secret1")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, "access denied: agent privileges required", err.Error())

	_, err = store.Get()
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, guard.AgentLoginPath, guard.DecideAgent(d.State()).Location)
}

func TestAgent_NonAgentSession(t *testing.T) {
	d, store := newDashboard(t, loginHandler(true))
	require.NoError(t, store.Set(&session.Session{Token: "x", User: &domain.UserProfile{ID: "1"}}))

	_, err := d.Agent()
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestSearch_TooShortNeverCallsAPI(t *testing.T) {
	var calls atomic.Int32
	d, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	for _, q := range []string{"", " ", "a", "  b  ", "ع"} {
		_, err := d.Search(context.Background(), q)
		assert.ErrorIs(t, err, ErrQueryTooShort, q)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestSearch_TrimsQuery(t *testing.T) {
	d, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "amal", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{
				"searched_users":       []interface{}{map[string]interface{}{"id": 1, "name": "Amal"}},
				"all_pending_bookings": []interface{}{},
			},
		})
	})

	res, err := d.Search(context.Background(), "  amal ")
	require.NoError(t, err)
	require.Len(t, res.SearchedUsers, 1)
	assert.Same(t, res, d.LastResult())
}

func TestConfirm_RefreshesLastSearch(t *testing.T) {
	var searches atomic.Int32
	d, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/agents/search-users":
			n := searches.Add(1)
			status := "pending"
			if n > 1 {
				status = "confirmed"
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"data": map[string]interface{}{
					"searched_users":       []interface{}{},
					"all_pending_bookings": []interface{}{map[string]interface{}{"id": 9, "status": status}},
				},
			})
		case "/api/agents/bookings/9/confirm":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Booking confirmed"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := d.Search(context.Background(), "amal")
	require.NoError(t, err)

	msg, err := d.Confirm(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "Booking confirmed", msg)
	assert.Equal(t, int32(2), searches.Load())
	assert.Equal(t, "confirmed", d.LastResult().AllPendingBookings[0].Status)
	assert.False(t, d.Confirming("9"))
}

func TestConfirm_RejectsDuplicateInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	d, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	done := make(chan error, 1)
	go func() {
		_, err := d.Confirm(context.Background(), "9")
		done <- err
	}()

	<-entered
	assert.True(t, d.Confirming("9"))
	_, err := d.Confirm(context.Background(), "9")
	assert.ErrorIs(t, err, ErrConfirmInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, d.Confirming("9"))
}

func TestConfirm_UnauthorizedClearsOnlyAgentSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
	}))
	t.Cleanup(srv.Close)

	userStore := session.NewMemoryStore()
	agentStore := session.NewMemoryStore()
	require.NoError(t, userStore.Set(&session.Session{Token: "u", User: &domain.UserProfile{ID: "1"}}))
	require.NoError(t, agentStore.Set(&session.Session{Token: "a", User: &domain.UserProfile{ID: "2", IsAgent: true}}))

	d := New(api.New(srv.URL, agentStore), agentStore, zerolog.Nop())

	_, err := d.Confirm(context.Background(), "9")
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsUnauthorized())

	_, err = agentStore.Get()
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = userStore.Get()
	assert.NoError(t, err)
}

func TestLogout_ClearsAgentNamespaceOnly(t *testing.T) {
	d, store := newDashboard(t, loginHandler(true))
	_, err := d.Login(context.Background(), "sami", "secret1")
	require.NoError(t, err)

	require.NoError(t, d.Logout())
	_, err = store.Get()
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Nil(t, d.LastResult())
}
