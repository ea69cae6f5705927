// Package guard decides whether a protected screen may be shown for a given
// auth state.
package guard

import (
	"net/url"

	"github.com/clickreserve/click/internal/auth"
)

// Locations the guard redirects to
const (
	LoginPath         = "/auth/login"
	VerifyPendingPath = "/auth/verify-pending"
	AgentLoginPath    = "/agent/login"
)

// Action is the outcome of a guard decision
type Action int

const (
	// Pending means the auth state is still loading; show a placeholder and
	// do not redirect.
	Pending Action = iota
	// Redirect means navigate to Decision.Location instead.
	Redirect
	// Allow means render the protected content.
	Allow
)

func (a Action) String() string {
	switch a {
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Policy describes what a protected screen requires
type Policy struct {
	RequireEmailVerification bool
	// RedirectTo is where unauthenticated users go. Defaults to LoginPath.
	RedirectTo string
}

// DefaultPolicy requires login and a verified email address
var DefaultPolicy = Policy{RequireEmailVerification: true, RedirectTo: LoginPath}

// AgentPolicy protects the agent dashboard
var AgentPolicy = Policy{RedirectTo: AgentLoginPath}

// Decision is the result of Decide
type Decision struct {
	Action   Action
	Location string
}

// Decide evaluates state against p. It has no side effects.
func Decide(state auth.State, p Policy) Decision {
	if state.IsLoading {
		return Decision{Action: Pending}
	}

	if !state.IsAuthenticated {
		to := p.RedirectTo
		if to == "" {
			to = LoginPath
		}
		return Decision{Action: Redirect, Location: to}
	}

	if p.RequireEmailVerification && !state.IsEmailVerified() {
		var email string
		if state.User != nil {
			email = state.User.Email
		}
		return Decision{Action: Redirect, Location: VerifyPendingLocation(email)}
	}

	return Decision{Action: Allow}
}

// DecideAgent is Decide for the agent dashboard: the session must also
// belong to an agent.
func DecideAgent(state auth.State) Decision {
	d := Decide(state, AgentPolicy)
	if d.Action == Allow && !state.IsAgent() {
		return Decision{Action: Redirect, Location: AgentLoginPath}
	}
	return d
}

// VerifyPendingLocation builds the verify-pending location for email
func VerifyPendingLocation(email string) string {
	return VerifyPendingPath + "?email=" + url.QueryEscape(email)
}
