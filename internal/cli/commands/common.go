package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/clickreserve/click/internal/agent"
	"github.com/clickreserve/click/internal/api"
	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/guard"
)

// requireUser initializes the auth state and applies the route guard. It
// returns the logged-in, verified user or an error telling the user which
// command to run instead.
func requireUser(ctx context.Context, env *Env, policy guard.Policy) (*domain.UserProfile, error) {
	if err := env.Auth().Initialize(ctx); err != nil {
		var apiErr *api.Error
		if !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
			env.Logger.Debug().Err(err).Msg("session check failed")
		}
	}

	state := env.Auth().State()
	d := guard.Decide(state, policy)
	if d.Action != guard.Allow {
		return nil, redirectError(d)
	}
	return state.User, nil
}

// requireAgent applies the agent guard to the stored agent session
func requireAgent(env *Env) (*domain.UserProfile, error) {
	d := guard.DecideAgent(env.Dashboard().State())
	if d.Action != guard.Allow {
		return nil, redirectError(d)
	}
	user, err := env.Dashboard().Agent()
	if err != nil {
		return nil, localizeAgentError(env, err)
	}
	return user, nil
}

// redirectError turns a guard redirect into an instruction. Each location
// maps to the command that plays that screen.
func redirectError(d guard.Decision) error {
	if d.Action == guard.Pending {
		return fmt.Errorf("authentication state is still loading")
	}
	return fmt.Errorf("%s", commandFor(d.Location))
}

func commandFor(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}

	switch u.Path {
	case guard.LoginPath:
		return "not logged in. Run 'click login' first"
	case guard.AgentLoginPath:
		return "agent session required. Run 'click agent login' first"
	case guard.VerifyPendingPath:
		email := u.Query().Get("email")
		return fmt.Sprintf("email address not verified. Check your inbox or run 'click verify-pending --email %s --resend'", email)
	default:
		return "please continue at " + location
	}
}

// agentMessages maps dashboard errors to the text shown for them
var agentMessages = map[error]string{
	agent.ErrAccessDenied:    "agent.access_denied",
	agent.ErrQueryTooShort:   "agent.search_too_short",
	agent.ErrConfirmInFlight: "agent.confirm_in_flight",
}

// localizedError carries translated text for err without hiding it from errors.Is
type localizedError struct {
	msg string
	err error
}

func (e *localizedError) Error() string { return e.msg }
func (e *localizedError) Unwrap() error { return e.err }

// localizeAgentError swaps a dashboard sentinel for its message in the
// active language. Other errors are returned unchanged.
func localizeAgentError(env *Env, err error) error {
	for sentinel, key := range agentMessages {
		if errors.Is(err, sentinel) {
			return &localizedError{msg: env.T(key), err: err}
		}
	}
	return err
}

// envOr returns value, or the environment variable key when value is empty
func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv(key))
}
