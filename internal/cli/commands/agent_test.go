package commands

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/clickreserve/click/internal/agent"
	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/i18n"
	"github.com/clickreserve/click/internal/session"
)

func agentSearchResponse() map[string]interface{} {
	return ok(map[string]interface{}{
		"searched_users": []map[string]interface{}{
			{"id": 5, "name": "Amal Haddad", "phone": "0591234567", "pending_bookings": []map[string]interface{}{{"id": 9}}},
		},
		"all_pending_bookings": []map[string]interface{}{
			{"id": 9, "listing_title": "Sunset Hall", "user_name": "Amal Haddad", "status": "pending", "deposit_amount": 150, "total_price": 600},
		},
	})
}

func loginAgent(te *testEnv) {
	te.AgentStore.Set(&session.Session{Token: "agent-token", User: &domain.UserProfile{ID: "3", Name: "Rami", IsAgent: true, EmailVerified: true}})
}

func TestAgentLoginCommand(t *testing.T) {
	te := newTestEnv(t)
	te.api.handle("POST /api/users/login", http.StatusOK, ok(map[string]interface{}{
		"token": "agent-token", "id": 3, "name": "Rami", "is_agent": true, "email_verified": true,
	}))

	if err := run(t, NewAgentCmd(te.Env), "login", "--identifier", "rami@click.ps", "--password", "secret1"); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if _, err := te.AgentStore.Get(); err != nil {
		t.Errorf("expected agent session, got %v", err)
	}
	if _, err := te.UserStore.Get(); err != session.ErrNotFound {
		t.Errorf("agent login must not touch the user session, got %v", err)
	}
	if !strings.Contains(te.out.String(), "Welcome to Agent Dashboard") {
		t.Errorf("unexpected output: %s", te.out.String())
	}
}

func TestAgentLoginCommand_NotAnAgent(t *testing.T) {
	te := newTestEnv(t)
	te.api.handle("POST /api/users/login", http.StatusOK, ok(map[string]interface{}{
		"token": "user-token", "id": 1, "is_agent": false, "email_verified": true,
	}))

	err := run(t, NewAgentCmd(te.Env), "login", "--identifier", "amal@example.ps", "--password", "secret1")
	if err == nil || err.Error() != "Access denied. Agent privileges required." {
		t.Fatalf("expected access denied, got: %v", err)
	}
	if _, err := te.AgentStore.Get(); err != session.ErrNotFound {
		t.Errorf("expected no agent session, got %v", err)
	}
}

func TestAgentLoginCommand_NotAnAgentInArabic(t *testing.T) {
	te := newTestEnv(t)
	te.SetLang(i18n.Arabic)
	te.api.handle("POST /api/users/login", http.StatusOK, ok(map[string]interface{}{
		"token": "user-token", "id": 1, "is_agent": false, "email_verified": true,
	}))

	err := run(t, NewAgentCmd(te.Env), "login", "--identifier", "amal@example.ps", "--password", "secret1")
	if !errors.Is(err, agent.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got: %v", err)
	}
	if want := te.Catalog.T(i18n.Arabic, "agent.access_denied"); err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestAgentSearchCommand_RequiresAgent(t *testing.T) {
	te := newTestEnv(t)
	te.UserStore.Set(&session.Session{Token: "user-token", User: &domain.UserProfile{ID: "1", EmailVerified: true}})

	err := run(t, NewAgentCmd(te.Env), "search", "amal")
	if err == nil || !strings.Contains(err.Error(), "click agent login") {
		t.Fatalf("expected agent login instruction, got: %v", err)
	}
	if len(te.api.calls()) != 0 {
		t.Errorf("expected no API calls, got %v", te.api.calls())
	}
}

func TestAgentSearchCommand(t *testing.T) {
	te := newTestEnv(t)
	loginAgent(te)
	te.api.handle("GET /api/agents/search-users", http.StatusOK, agentSearchResponse())

	if err := run(t, NewAgentCmd(te.Env), "search", "  amal  "); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	out := te.out.String()
	for _, want := range []string{"Amal Haddad", "0591234567", "Sunset Hall", "150.00", "600.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestAgentSearchCommand_TooShort(t *testing.T) {
	te := newTestEnv(t)
	loginAgent(te)

	err := run(t, NewAgentCmd(te.Env), "search", " a ")
	if err == nil || !strings.Contains(err.Error(), "at least 2 characters") {
		t.Fatalf("expected too-short error, got: %v", err)
	}
	if len(te.api.calls()) != 0 {
		t.Errorf("expected no API calls, got %v", te.api.calls())
	}
}

func TestAgentSearchCommand_ExpiredAgentSession(t *testing.T) {
	te := newTestEnv(t)
	loginAgent(te)
	te.UserStore.Set(&session.Session{Token: "user-token", User: &domain.UserProfile{ID: "1", EmailVerified: true}})
	te.api.handle("GET /api/agents/search-users", http.StatusUnauthorized, map[string]string{"message": "Token expired"})

	if err := run(t, NewAgentCmd(te.Env), "search", "amal"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := te.AgentStore.Get(); err != session.ErrNotFound {
		t.Errorf("expected agent session cleared, got %v", err)
	}
	if _, err := te.UserStore.Get(); err != nil {
		t.Errorf("user session must survive an agent 401, got %v", err)
	}
	if !strings.Contains(te.err.String(), "Run click agent login to sign in again.") {
		t.Errorf("expected agent login hint, got: %s", te.err.String())
	}
}

func TestAgentConfirmCommand_RefreshesSearch(t *testing.T) {
	te := newTestEnv(t)
	loginAgent(te)
	te.api.handle("PUT /api/agents/bookings/9/confirm", http.StatusOK, map[string]interface{}{"success": true})
	te.api.handle("GET /api/agents/search-users", http.StatusOK, agentSearchResponse())

	if err := run(t, NewAgentCmd(te.Env), "confirm", "9", "--refresh", "amal"); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	calls := te.api.calls()
	if len(calls) != 2 || calls[0] != "PUT /api/agents/bookings/9/confirm" || calls[1] != "GET /api/agents/search-users" {
		t.Errorf("expected confirm then search, got %v", calls)
	}
	out := te.out.String()
	if !strings.Contains(out, "Booking confirmed successfully!") || !strings.Contains(out, "Sunset Hall") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestAgentConfirmCommand_PicksPendingBooking(t *testing.T) {
	te := newTestEnv(t)
	loginAgent(te)
	te.api.handle("GET /api/agents/search-users", http.StatusOK, agentSearchResponse())
	te.api.handle("PUT /api/agents/bookings/9/confirm", http.StatusOK, map[string]interface{}{"success": true})

	var offered []domain.Booking
	te.SelectBooking = func(bookings []domain.Booking) (domain.ID, error) {
		offered = bookings
		return bookings[0].ID, nil
	}

	if err := run(t, NewAgentCmd(te.Env), "confirm", "--refresh", "amal"); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if len(offered) == 0 {
		t.Fatal("expected pending bookings to be offered")
	}
	calls := te.api.calls()
	if len(calls) != 3 || calls[1] != "PUT /api/agents/bookings/9/confirm" {
		t.Errorf("expected search, confirm, search, got %v", calls)
	}
}

func TestAgentConfirmCommand_RequiresIDWhenNonInteractive(t *testing.T) {
	te := newTestEnv(t)
	loginAgent(te)

	err := run(t, NewAgentCmd(te.Env), "confirm", "--refresh", "amal")
	if err == nil || !strings.Contains(err.Error(), "booking ID is required") {
		t.Errorf("expected booking ID error, got %v", err)
	}
	if len(te.api.calls()) != 0 {
		t.Errorf("expected no API calls, got %v", te.api.calls())
	}
}

func TestAgentLogoutCommand(t *testing.T) {
	te := newTestEnv(t)
	loginAgent(te)
	te.UserStore.Set(&session.Session{Token: "user-token", User: &domain.UserProfile{ID: "1"}})

	if err := run(t, NewAgentCmd(te.Env), "logout"); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if _, err := te.AgentStore.Get(); err != session.ErrNotFound {
		t.Errorf("expected agent session cleared, got %v", err)
	}
	if _, err := te.UserStore.Get(); err != nil {
		t.Errorf("user session must survive agent logout, got %v", err)
	}
}
