package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/clickreserve/click/internal/domain"
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Language string `json:"language"`
}

// LoginRequest represents the login request body. Identifier is an email
// address or a phone number.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResult is the token and profile returned by a successful login
type LoginResult struct {
	Token string
	User  *domain.UserProfile
}

// Register creates an account. No session is established; the server mails
// a verification link instead.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.UserProfile, error) {
	if req.Language == "" {
		req.Language = c.language
	}

	var profile domain.UserProfile
	if _, err := c.call(ctx, http.MethodPost, "/api/users/register", nil, req, &profile, "Registration failed"); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login authenticates and returns the bearer token together with the profile
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	const fallback = "Login failed"

	var raw json.RawMessage
	if _, err := c.call(ctx, http.MethodPost, "/api/users/login", nil, req, &raw, fallback); err != nil {
		return nil, err
	}

	var tok struct {
		Token string `json:"token"`
	}
	var profile domain.UserProfile
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, &Error{Kind: KindServer, Message: fallback, Err: err}
	}
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, &Error{Kind: KindServer, Message: fallback, Err: err}
	}
	delete(profile.Extra, "token")
	if len(profile.Extra) == 0 {
		profile.Extra = nil
	}

	if tok.Token == "" {
		return nil, &Error{Kind: KindServer, Message: fallback}
	}

	return &LoginResult{Token: tok.Token, User: &profile}, nil
}

// Logout revokes the current token on the server
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodPost, "/api/users/logout", nil, nil, nil, "Logout failed")
	return err
}

// VerifyEmail redeems an email verification token and returns the server message
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	query := url.Values{"language": {c.language}}
	msg, err := c.call(ctx, http.MethodGet, "/api/users/verify-email/"+url.PathEscape(token), query, nil, nil, "Email verification failed")
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "Email verified successfully"
	}
	return msg, nil
}

// ResendVerification asks the server to mail a fresh verification link
func (c *Client) ResendVerification(ctx context.Context, email string) (string, error) {
	body := map[string]string{"email": email, "language": c.language}
	msg, err := c.call(ctx, http.MethodPost, "/api/users/resend-verification", nil, body, nil, "Failed to send verification email")
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "Verification email sent successfully"
	}
	return msg, nil
}

// GetProfile returns the authenticated user's profile
func (c *Client) GetProfile(ctx context.Context) (*domain.UserProfile, error) {
	return c.profile(ctx, "Failed to get profile")
}

// CheckAuth validates the stored token by fetching the profile
func (c *Client) CheckAuth(ctx context.Context) (*domain.UserProfile, error) {
	return c.profile(ctx, "Not authenticated")
}

func (c *Client) profile(ctx context.Context, fallback string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if _, err := c.call(ctx, http.MethodGet, "/api/users/profile", nil, nil, &profile, fallback); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile sends the changed fields and returns the profile as stored by the server
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]interface{}) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if _, err := c.call(ctx, http.MethodPut, "/api/users/profile", nil, fields, &profile, "Failed to update profile"); err != nil {
		return nil, err
	}
	return &profile, nil
}

// RequestPasswordReset mails a password reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	msg, err := c.call(ctx, http.MethodPost, "/api/users/forgot-password", nil, map[string]string{"email": email}, nil, "Failed to send password reset email")
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "Password reset email sent"
	}
	return msg, nil
}

// ResetPassword sets a new password using a reset token
func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	body := map[string]string{"token": token, "password": password}
	msg, err := c.call(ctx, http.MethodPost, "/api/users/reset-password", nil, body, nil, "Failed to reset password")
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "Password reset successfully"
	}
	return msg, nil
}
