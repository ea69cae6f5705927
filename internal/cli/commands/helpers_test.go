package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/config"
	"github.com/clickreserve/click/internal/i18n"
	"github.com/clickreserve/click/internal/session"
	"github.com/clickreserve/click/internal/validation"
)

// memoryPreferences is an in-memory Preferences for testing
type memoryPreferences struct {
	mu         sync.Mutex
	language   string
	lastResend map[string]time.Time
}

func newMemoryPreferences() *memoryPreferences {
	return &memoryPreferences{lastResend: make(map[string]time.Time)}
}

func (m *memoryPreferences) Language() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.language, nil
}

func (m *memoryPreferences) SetLanguage(lang string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.language = lang
	return nil
}

func (m *memoryPreferences) LastResend(email string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastResend[strings.ToLower(email)], nil
}

func (m *memoryPreferences) SetLastResend(email string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastResend[strings.ToLower(email)] = at
	return nil
}

// testAPI records requests and answers them from per-route handlers
type testAPI struct {
	t        *testing.T
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []string
	bodies   map[string]map[string]interface{}
}

func (a *testAPI) handle(route string, status int, body interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[route] = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	}
}

func (a *testAPI) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

func (a *testAPI) body(route string) map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bodies[route]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func ok(data interface{}) map[string]interface{} {
	return map[string]interface{}{"success": true, "data": data}
}

// testEnv is an Env wired to an httptest server, in-memory stores and a
// fake clock
type testEnv struct {
	*Env
	api   *testAPI
	out   *bytes.Buffer
	err   *bytes.Buffer
	prefs *memoryPreferences
	clock clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	a := &testAPI{t: t, routes: make(map[string]http.HandlerFunc), bodies: make(map[string]map[string]interface{})}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		a.mu.Lock()
		a.requests = append(a.requests, route)
		if r.Body != nil {
			var body map[string]interface{}
			if json.NewDecoder(r.Body).Decode(&body) == nil {
				a.bodies[route] = body
			}
		}
		h, found := a.routes[route]
		a.mu.Unlock()

		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	catalog := i18n.MustLoad()
	te := &testEnv{
		api:   a,
		out:   &bytes.Buffer{},
		err:   &bytes.Buffer{},
		prefs: newMemoryPreferences(),
		clock: clockwork.NewFakeClock(),
	}
	te.Env = &Env{
		Config: &config.Config{
			API:    config.APIConfig{URL: srv.URL, Timeout: 5 * time.Second},
			Region: "PS",
		},
		Logger:     zerolog.Nop(),
		Out:        te.out,
		Err:        te.err,
		Catalog:    catalog,
		Validator:  validation.New(catalog),
		Prefs:      te.prefs,
		Clock:      te.clock,
		UserStore:  session.NewMemoryStore(),
		AgentStore: session.NewMemoryStore(),
		lang:       i18n.English,
	}
	return te
}

// fresh returns a new Env over the same stores, preferences and clock, the
// way a second invocation of the binary would see them
func (te *testEnv) fresh() *testEnv {
	next := *te
	env := *te.Env
	env.userAPI, env.agentAPI, env.manager, env.dashboard = nil, nil, nil, nil
	next.Env = &env
	te.out.Reset()
	te.err.Reset()
	return &next
}

func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(context.Background())
}
