package sandbox

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clickreserve/click/internal/config"
	"github.com/clickreserve/click/internal/models"
)

type testSandbox struct {
	*Server
	outbox *Outbox
	clock  clockwork.FakeClock
	url    string
}

func newTestSandbox(t *testing.T) *testSandbox {
	t.Helper()

	outbox := &Outbox{}
	clock := clockwork.NewFakeClock()
	cfg := config.SandboxConfig{
		Database:      filepath.Join(t.TempDir(), "sandbox.db"),
		JWTSecret:     "test-secret",
		TokenExpiry:   time.Hour,
		SeedAgent:     true,
		PublicBaseURL: "http://click.test/",
	}

	s, err := New(cfg, zerolog.Nop(), WithMailer(outbox), WithClock(clock), WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})

	return &testSandbox{Server: s, outbox: outbox, clock: clock, url: srv.URL}
}

func (ts *testSandbox) do(t *testing.T, method, path, token string, body interface{}) (int, envelopeResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.url+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelopeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

type envelopeResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func TestSandbox_Health(t *testing.T) {
	ts := newTestSandbox(t)

	resp, err := http.Get(ts.url + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSandbox_SeedIsIdempotent(t *testing.T) {
	ts := newTestSandbox(t)
	require.NoError(t, ts.seed())

	var agents int64
	require.NoError(t, ts.GetDB().Model(&models.User{}).Where("is_agent = ?", true).Count(&agents).Error)
	assert.Equal(t, int64(1), agents)

	var bookings int64
	require.NoError(t, ts.GetDB().Model(&models.Booking{}).Count(&bookings).Error)
	assert.Equal(t, int64(2), bookings)
}

func TestSandbox_RegisterValidation(t *testing.T) {
	ts := newTestSandbox(t)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"short password", map[string]string{"name": "Amal", "email": "a@b.co", "phone": "059", "password": "123"}, "password must be at least 6 characters"},
		{"bad email", map[string]string{"name": "Amal", "email": "a@b", "phone": "059", "password": "secret1"}, "Invalid email address"},
		{"bad phone", map[string]string{"name": "Amal", "email": "a@b.co", "phone": "call me", "password": "secret1"}, "Invalid phone number"},
		{"bad language", map[string]string{"name": "Amal", "email": "a@b.co", "phone": "059", "password": "secret1", "language": "fr"}, "language must be one of: ar en he"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := ts.do(t, http.MethodPost, "/api/users/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.want, env.Message)
		})
	}
	assert.Zero(t, ts.outbox.Len())
}

func TestSandbox_RegisterDuplicate(t *testing.T) {
	ts := newTestSandbox(t)

	status, env := ts.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Someone", "email": SeedGuestEmail, "phone": "0590000000", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already registered", env.Message)
}

func TestSandbox_RegisterMailsLink(t *testing.T) {
	ts := newTestSandbox(t)

	status, env := ts.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Noor Khalil", "email": "Noor@Example.ps", "phone": "0599999999", "password": "secret1", "language": "he",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)

	var user userResponse
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "noor@example.ps", user.Email)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, "Noor", user.FirstName)
	assert.Equal(t, "Khalil", user.LastName)

	mail, ok := ts.outbox.Last("noor@example.ps")
	require.True(t, ok)
	assert.Equal(t, "http://click.test/verify-email?token="+mail.Token, mail.Link)
	assert.Equal(t, mailSubject(models.PurposeEmailVerification, "he"), mail.Subject)
}

func TestSandbox_ProtectedRoutes(t *testing.T) {
	ts := newTestSandbox(t)

	status, env := ts.do(t, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing authorization header", env.Message)

	status, env = ts.do(t, http.MethodGet, "/api/users/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", env.Message)
}

func TestSandbox_AgentRoutesRequireAgent(t *testing.T) {
	ts := newTestSandbox(t)

	status, env := ts.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"identifier": SeedGuestEmail, "password": SeedGuestPassword,
	})
	require.Equal(t, http.StatusOK, status)

	var login loginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))

	status, env = ts.do(t, http.MethodGet, "/api/agents/search-users?search=amal", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Agent access required", env.Message)
}

func TestSandbox_LoginByPhone(t *testing.T) {
	ts := newTestSandbox(t)

	status, env := ts.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"identifier": "+970591234567", "password": SeedGuestPassword,
	})
	require.Equal(t, http.StatusOK, status)

	var login loginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, SeedGuestEmail, login.Email)

	status, env = ts.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"identifier": "+970591234567", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", env.Message)
}

func TestSandbox_ResendVerification(t *testing.T) {
	ts := newTestSandbox(t)

	status, env := ts.do(t, http.MethodPost, "/api/users/resend-verification", "", map[string]string{"email": SeedGuestEmail})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email is already verified", env.Message)

	status, _ = ts.do(t, http.MethodPost, "/api/users/resend-verification", "", map[string]string{"email": "nobody@click.ps"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSandbox_ForgotPasswordHidesUnknownAccounts(t *testing.T) {
	ts := newTestSandbox(t)

	status, env := ts.do(t, http.MethodPost, "/api/users/forgot-password", "", map[string]string{"email": "nobody@click.ps"})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Zero(t, ts.outbox.Len())
}

func TestSandbox_ConfirmBookingErrors(t *testing.T) {
	ts := newTestSandbox(t)

	status, env := ts.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"identifier": SeedAgentEmail, "password": SeedAgentPassword,
	})
	require.Equal(t, http.StatusOK, status)
	var login loginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))

	status, env = ts.do(t, http.MethodPut, "/api/agents/bookings/missing/confirm", login.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Booking not found", env.Message)

	status, env = ts.do(t, http.MethodGet, "/api/agents/search-users?search=a", login.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Search term must be at least 2 characters long", env.Message)
}

func TestTokenIssuer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer, err := NewTokenIssuer("secret", time.Hour, clock)
	require.NoError(t, err)

	token, err := issuer.Issue("u1", "a@b.co", true)
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.IsAgent)
	assert.NotEmpty(t, claims.ID)

	clock.Advance(time.Hour + time.Second)
	_, err = issuer.Validate(token)
	assert.Error(t, err)

	other, err := NewTokenIssuer("other", time.Hour, clock)
	require.NoError(t, err)
	_, err = other.Validate(token)
	assert.Error(t, err)

	_, err = NewTokenIssuer("", time.Hour, clock)
	assert.Error(t, err)
}
