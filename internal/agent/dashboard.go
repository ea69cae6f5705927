// Package agent implements the agent dashboard: agent-only login, user
// search and booking confirmation. Agent sessions are stored apart from
// regular user sessions.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/clickreserve/click/internal/api"
	"github.com/clickreserve/click/internal/auth"
	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/session"
)

// MinQueryLength is the shortest search term accepted
const MinQueryLength = 2

var (
	ErrAccessDenied    = errors.New("access denied: agent privileges required")
	ErrQueryTooShort   = errors.New("search term must be at least 2 characters long")
	ErrConfirmInFlight = errors.New("booking confirmation already in progress")
)

// Client is the subset of the API client the dashboard needs. It must be
// bound to the agent session store.
type Client interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResult, error)
	SearchUsers(ctx context.Context, query string) (*domain.SearchResult, error)
	ConfirmBooking(ctx context.Context, bookingID domain.ID) (string, error)
}

// Dashboard holds the agent session and the last search
type Dashboard struct {
	client Client
	store  session.Store
	logger zerolog.Logger

	mu         sync.Mutex
	confirming map[domain.ID]bool
	lastQuery  string
	lastResult *domain.SearchResult
}

// New creates a dashboard over the agent session store
func New(client Client, store session.Store, logger zerolog.Logger) *Dashboard {
	return &Dashboard{
		client:     client,
		store:      store,
		logger:     logger,
		confirming: make(map[domain.ID]bool),
	}
}

// Login authenticates and keeps the session only if the account is an agent
func (d *Dashboard) Login(ctx context.Context, identifier, password string) (*domain.UserProfile, error) {
	res, err := d.client.Login(ctx, api.LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return nil, err
	}
	if !res.User.IsAgent {
		d.logger.Warn().Str("user_id", res.User.ID.String()).Msg("non-agent tried to log in to the agent portal")
		return nil, ErrAccessDenied
	}

	if err := d.store.Set(&session.Session{Token: res.Token, User: res.User}); err != nil {
		return nil, fmt.Errorf("failed to save agent session: %w", err)
	}
	return res.User.Clone(), nil
}

// State reports the agent session as an auth state for guard.DecideAgent
func (d *Dashboard) State() auth.State {
	sess, err := d.store.Get()
	if err != nil {
		return auth.State{}
	}
	return auth.State{User: sess.User, IsAuthenticated: true}
}

// Agent returns the logged-in agent
func (d *Dashboard) Agent() (*domain.UserProfile, error) {
	sess, err := d.store.Get()
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, auth.ErrNotLoggedIn
		}
		return nil, err
	}
	if !sess.User.IsAgent {
		return nil, ErrAccessDenied
	}
	return sess.User, nil
}

// Search looks users up by name or phone. The query is trimmed and must have
// at least MinQueryLength characters; shorter queries never reach the API.
func (d *Dashboard) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}

	res, err := d.client.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.lastQuery = query
	d.lastResult = res
	d.mu.Unlock()

	return res, nil
}

// SetQuery sets the search that Confirm re-runs after a confirmation
func (d *Dashboard) SetQuery(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastQuery = strings.TrimSpace(query)
}

// LastResult returns the most recent search result, or nil
func (d *Dashboard) LastResult() *domain.SearchResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastResult
}

// Confirming reports whether a confirmation for id is in flight
func (d *Dashboard) Confirming(id domain.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.confirming[id]
}

// Confirm confirms a pending booking. A second call for the same booking
// while the first is in flight fails with ErrConfirmInFlight. On success the
// last search is re-run; a failed refresh is only logged.
func (d *Dashboard) Confirm(ctx context.Context, id domain.ID) (string, error) {
	d.mu.Lock()
	if d.confirming[id] {
		d.mu.Unlock()
		return "", ErrConfirmInFlight
	}
	d.confirming[id] = true
	d.mu.Unlock()

	msg, err := d.client.ConfirmBooking(ctx, id)

	d.mu.Lock()
	delete(d.confirming, id)
	query := d.lastQuery
	d.mu.Unlock()

	if err != nil {
		return "", err
	}

	if utf8.RuneCountInString(query) >= MinQueryLength {
		if _, err := d.Search(ctx, query); err != nil {
			d.logger.Warn().Err(err).Str("query", query).Msg("failed to refresh search after confirmation")
		}
	}

	return msg, nil
}

// Logout drops the agent session. The user session is untouched.
func (d *Dashboard) Logout() error {
	d.mu.Lock()
	d.lastQuery = ""
	d.lastResult = nil
	d.mu.Unlock()

	if err := d.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear agent session: %w", err)
	}
	return nil
}
