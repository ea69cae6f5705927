// Package auth holds the client-side authentication state: who is logged in,
// kept consistent with the persisted session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clickreserve/click/internal/api"
	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/session"
)

// Client is the subset of the API client the manager needs
type Client interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResult, error)
	Register(ctx context.Context, req api.RegisterRequest) (*domain.UserProfile, error)
	Logout(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) (string, error)
	ResendVerification(ctx context.Context, email string) (string, error)
	CheckAuth(ctx context.Context) (*domain.UserProfile, error)
	GetProfile(ctx context.Context) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, fields map[string]interface{}) (*domain.UserProfile, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) (string, error)
}

// Manager is the single source of truth for the logged-in user. Construct
// one per application run, call Initialize once, and Close on teardown.
type Manager struct {
	client Client
	store  session.Store
	logger zerolog.Logger

	mu        sync.Mutex
	state     State
	busy      bool
	closed    bool
	observers map[int]func(State)
	nextObs   int
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager in the loading state
func NewManager(client Client, store session.Store, opts ...Option) *Manager {
	m := &Manager{
		client:    client,
		store:     store,
		logger:    zerolog.Nop(),
		state:     State{IsLoading: true},
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the current auth state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe registers fn to receive every state change. The returned func
// unregisters it.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// Close drops all observers. Later operations fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.observers = make(map[int]func(State))
}

// Initialize derives the auth state from the persisted session. A stored
// token is checked against the server once; the server's profile replaces
// the cached one. Any failure clears the session.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}

	sess, err := m.store.Get()
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			m.logger.Warn().Err(err).Msg("unreadable session, clearing")
			m.clearStore()
		}
		m.finish(State{})
		return nil
	}

	profile, err := m.client.CheckAuth(ctx)
	if err != nil {
		m.logger.Info().Err(err).Msg("stored session rejected")
		m.clearStore()
		m.finish(State{})
		return err
	}

	if err := m.store.Set(&session.Session{Token: sess.Token, User: profile}); err != nil {
		m.logger.Warn().Err(err).Msg("failed to refresh cached profile")
	}

	m.finish(State{User: profile, IsAuthenticated: true})
	return nil
}

// Login authenticates with an email or phone number. An unverified account
// yields *UnverifiedEmailError and leaves no session behind.
func (m *Manager) Login(ctx context.Context, identifier, password string) (*domain.UserProfile, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	prev := m.State()

	res, err := m.client.Login(ctx, api.LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		m.finish(prev)
		return nil, err
	}

	if !res.User.EmailVerified {
		m.finish(prev)
		return nil, &UnverifiedEmailError{Email: res.User.Email}
	}

	if err := m.store.Set(&session.Session{Token: res.Token, User: res.User}); err != nil {
		m.finish(prev)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Info().Str("user_id", res.User.ID.String()).Msg("logged in")
	m.finish(State{User: res.User, IsAuthenticated: true})
	return res.User.Clone(), nil
}

// Register creates an account. It never establishes a session; the user has
// to verify their email first.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) (*domain.UserProfile, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	prev := m.State()
	defer m.finish(prev)

	return m.client.Register(ctx, req)
}

// Logout revokes the stored token on the server if it can, and always
// clears the local session.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}

	if _, err := m.store.Get(); err == nil {
		if err := m.client.Logout(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("remote logout failed, clearing local session anyway")
		}
	}

	err := m.store.Clear()
	m.finish(State{})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// VerifyEmail redeems a verification token. Failures are *VerificationError.
func (m *Manager) VerifyEmail(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", &VerificationError{Err: ErrNoVerificationToken}
	}
	if err := m.begin(); err != nil {
		return "", err
	}
	prev := m.State()
	defer m.finish(prev)

	msg, err := m.client.VerifyEmail(ctx, token)
	if err != nil {
		return "", classifyVerification(err)
	}
	return msg, nil
}

// ResendVerificationEmail asks for a new verification link. It does not
// take the loading flag, so it can run from the pending screen at any time.
func (m *Manager) ResendVerificationEmail(ctx context.Context, email string) (string, error) {
	if m.isClosed() {
		return "", ErrClosed
	}
	msg, err := m.client.ResendVerification(ctx, email)
	if err != nil {
		return "", classifyVerification(err)
	}
	return msg, nil
}

// UpdateProfile sends fields to the server and replaces the in-memory and
// persisted profile with the server's answer.
func (m *Manager) UpdateProfile(ctx context.Context, fields map[string]interface{}) (*domain.UserProfile, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	prev := m.State()

	profile, err := m.client.UpdateProfile(ctx, fields)
	if err != nil {
		m.finish(m.afterFailure(prev))
		return nil, err
	}

	next, err := m.replaceProfile(prev, profile)
	m.finish(next)
	if err != nil {
		return nil, err
	}
	return profile.Clone(), nil
}

// RefreshUser refetches the profile and replaces the cached copy.
func (m *Manager) RefreshUser(ctx context.Context) (*domain.UserProfile, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}

	profile, err := m.client.GetProfile(ctx)
	if err != nil {
		m.mu.Lock()
		next := m.afterFailure(m.state)
		m.mu.Unlock()
		m.set(next)
		return nil, err
	}

	next, err := m.replaceProfile(m.State(), profile)
	m.set(next)
	if err != nil {
		return nil, err
	}
	return profile.Clone(), nil
}

// RequestPasswordReset mails a password reset link.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if m.isClosed() {
		return "", ErrClosed
	}
	return m.client.RequestPasswordReset(ctx, email)
}

// ResetPassword sets a new password from a reset token.
func (m *Manager) ResetPassword(ctx context.Context, token, password string) (string, error) {
	if m.isClosed() {
		return "", ErrClosed
	}
	return m.client.ResetPassword(ctx, token, password)
}

// replaceProfile persists profile under the current token (server wins, no
// field merging) and returns the resulting state.
func (m *Manager) replaceProfile(prev State, profile *domain.UserProfile) (State, error) {
	sess, err := m.store.Get()
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return State{}, ErrNotLoggedIn
		}
		return prev, fmt.Errorf("failed to load session: %w", err)
	}

	if err := m.store.Set(&session.Session{Token: sess.Token, User: profile}); err != nil {
		return prev, fmt.Errorf("failed to save session: %w", err)
	}

	return State{User: profile, IsAuthenticated: true}, nil
}

// afterFailure drops the in-memory login when the API client cleared the
// session because of a 401.
func (m *Manager) afterFailure(prev State) State {
	if _, err := m.store.Get(); errors.Is(err, session.ErrNotFound) {
		return State{}
	}
	prev.IsLoading = false
	return prev
}

func classifyVerification(err error) error {
	if apiErr, ok := api.AsError(err); ok {
		return &VerificationError{Expired: apiErr.Mentions("expired", "invalid"), Err: err}
	}
	return &VerificationError{Err: err}
}

func (m *Manager) clearStore() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear session")
	}
}

// begin marks a mutating operation in flight and publishes IsLoading.
func (m *Manager) begin() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	m.busy = true
	m.state.IsLoading = true
	snapshot, observers := m.snapshotLocked()
	m.mu.Unlock()

	notify(observers, snapshot)
	return nil
}

// finish publishes next with IsLoading cleared and releases the busy flag.
func (m *Manager) finish(next State) {
	m.mu.Lock()
	m.busy = false
	next.IsLoading = false
	m.state = next.clone()
	snapshot, observers := m.snapshotLocked()
	m.mu.Unlock()

	notify(observers, snapshot)
}

// set publishes next without touching the busy flag.
func (m *Manager) set(next State) {
	m.mu.Lock()
	next.IsLoading = m.busy
	m.state = next.clone()
	snapshot, observers := m.snapshotLocked()
	m.mu.Unlock()

	notify(observers, snapshot)
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) snapshotLocked() (State, []func(State)) {
	observers := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	return m.state.clone(), observers
}

func notify(observers []func(State), s State) {
	for _, fn := range observers {
		fn(s.clone())
	}
}
