package guard

import (
	"testing"

	"github.com/clickreserve/click/internal/auth"
	"github.com/clickreserve/click/internal/domain"
)

func TestDecide(t *testing.T) {
	verified := &domain.UserProfile{ID: "1", Email: "a@b.com", EmailVerified: true}
	unverified := &domain.UserProfile{ID: "1", Email: "a+b@x.com", EmailVerified: false}

	tests := []struct {
		name     string
		state    auth.State
		policy   Policy
		action   Action
		location string
	}{
		{
			name:   "loading never redirects",
			state:  auth.State{IsLoading: true},
			policy: DefaultPolicy,
			action: Pending,
		},
		{
			name:   "loading with stale user still pending",
			state:  auth.State{IsLoading: true, User: unverified, IsAuthenticated: true},
			policy: DefaultPolicy,
			action: Pending,
		},
		{
			name:     "unauthenticated goes to login",
			state:    auth.State{},
			policy:   DefaultPolicy,
			action:   Redirect,
			location: "/auth/login",
		},
		{
			name:     "empty redirect defaults to login",
			state:    auth.State{},
			policy:   Policy{},
			action:   Redirect,
			location: "/auth/login",
		},
		{
			name:     "custom redirect",
			state:    auth.State{},
			policy:   Policy{RedirectTo: "/welcome"},
			action:   Redirect,
			location: "/welcome",
		},
		{
			name:     "unverified goes to pending with escaped email",
			state:    auth.State{User: unverified, IsAuthenticated: true},
			policy:   DefaultPolicy,
			action:   Redirect,
			location: "/auth/verify-pending?email=a%2Bb%40x.com",
		},
		{
			name:   "unverified allowed when not required",
			state:  auth.State{User: unverified, IsAuthenticated: true},
			policy: Policy{RequireEmailVerification: false},
			action: Allow,
		},
		{
			name:   "verified allowed",
			state:  auth.State{User: verified, IsAuthenticated: true},
			policy: DefaultPolicy,
			action: Allow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.state, tt.policy)
			if d.Action != tt.action {
				t.Errorf("Action = %v, want %v", d.Action, tt.action)
			}
			if d.Location != tt.location {
				t.Errorf("Location = %q, want %q", d.Location, tt.location)
			}
		})
	}
}

func TestDecideAgent(t *testing.T) {
	agent := &domain.UserProfile{ID: "1", IsAgent: true}
	user := &domain.UserProfile{ID: "2", EmailVerified: true}

	if d := DecideAgent(auth.State{IsLoading: true}); d.Action != Pending {
		t.Errorf("loading: got %v", d.Action)
	}
	if d := DecideAgent(auth.State{}); d.Location != AgentLoginPath {
		t.Errorf("anonymous: got %q", d.Location)
	}
	if d := DecideAgent(auth.State{User: user, IsAuthenticated: true}); d.Action != Redirect || d.Location != AgentLoginPath {
		t.Errorf("non-agent: got %+v", d)
	}
	if d := DecideAgent(auth.State{User: agent, IsAuthenticated: true}); d.Action != Allow {
		t.Errorf("agent: got %+v", d)
	}
}
