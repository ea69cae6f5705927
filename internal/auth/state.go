package auth

import (
	"errors"

	"github.com/clickreserve/click/internal/domain"
)

// State is the in-memory view of who is logged in.
type State struct {
	User            *domain.UserProfile
	IsAuthenticated bool
	IsLoading       bool
}

// IsEmailVerified reports whether the current user has verified their email.
func (s State) IsEmailVerified() bool {
	return s.User != nil && s.User.EmailVerified
}

// IsHost reports whether the current user is a host.
func (s State) IsHost() bool {
	return s.User != nil && s.User.IsHost
}

// IsAgent reports whether the current user is an agent.
func (s State) IsAgent() bool {
	return s.User != nil && s.User.IsAgent
}

func (s State) clone() State {
	s.User = s.User.Clone()
	return s
}

var (
	// ErrEmailNotVerified is matched by *UnverifiedEmailError.
	ErrEmailNotVerified = errors.New("email address not verified")
	// ErrVerificationExpired is matched by a *VerificationError whose link expired or is invalid.
	ErrVerificationExpired = errors.New("verification link expired or invalid")
	// ErrNoVerificationToken is returned by VerifyEmail for an empty token.
	ErrNoVerificationToken = errors.New("invalid verification link: no token provided")
	// ErrBusy is returned when a mutating operation is already in flight.
	ErrBusy = errors.New("another authentication request is in progress")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("auth manager closed")
	// ErrNotLoggedIn is returned by profile operations without a session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// UnverifiedEmailError is returned by Login when the credentials are valid
// but the address still has to be confirmed. No session is stored.
type UnverifiedEmailError struct {
	Email string
}

func (e *UnverifiedEmailError) Error() string {
	return "please verify your email address before logging in"
}

func (e *UnverifiedEmailError) Is(target error) bool {
	return target == ErrEmailNotVerified
}

// VerificationError wraps a failed verify or resend call.
type VerificationError struct {
	// Expired is set when the server says the link is expired or invalid;
	// the caller should offer a new link instead of a generic error.
	Expired bool
	Err     error
}

func (e *VerificationError) Error() string {
	return e.Err.Error()
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func (e *VerificationError) Is(target error) bool {
	return target == ErrVerificationExpired && e.Expired
}
