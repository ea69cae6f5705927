// Package api is the HTTP client for the Click reservation API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clickreserve/click/internal/session"
)

const (
	// DefaultBaseURL is the API endpoint used when none is configured.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 10 * time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
	headerRequestID     = "X-Request-ID"
	contentTypeJSON     = "application/json"
	userAgent           = "click-cli"
)

// Client represents an HTTP client for the Click API. A Client is bound to
// one session store: it reads the bearer token from it and clears it when the
// server rejects that token.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	store          session.Store
	onUnauthorized func()
	logger         zerolog.Logger
	language       string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The client is never modified;
// a timeout set with WithTimeout applies to a copy of it.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUnauthorizedHandler registers fn to run after a 401 has cleared the session.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLanguage sets the language sent with registration and verification calls.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// New creates a new API client. store may be nil for unauthenticated use.
func New(baseURL string, store session.Store, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		logger:     zerolog.Nop(),
		language:   "ar",
	}

	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		timeout := c.timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout != 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c
}

// BaseURL returns the API endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Language returns the language sent to the server.
func (c *Client) Language() string {
	return c.language
}

// envelope is the response wrapper used by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call performs an HTTP request, decodes the envelope and normalizes every
// failure into *Error with fallback as the default message. result, when
// non-nil, receives the envelope's data field.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, result interface{}, fallback string) (string, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return "", &Error{Kind: KindValidation, Message: fallback, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return "", networkError(fmt.Errorf("failed to create request: %w", err), fallback)
	}

	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerUserAgent, userAgent)
	req.Header.Set(headerRequestID, uuid.NewString())
	token := c.token()
	if token != "" {
		req.Header.Set(headerAuthorization, "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return "", networkError(fmt.Errorf("failed to send request: %w", err), fallback)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", networkError(fmt.Errorf("failed to read response: %w", err), fallback)
	}

	// A 401 without a token is a failed login, not an expired session
	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		c.invalidateSession()
	}

	if resp.StatusCode >= 400 {
		return "", parseError(resp.StatusCode, respBody, fallback)
	}

	if len(respBody) == 0 {
		return "", nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return "", &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: fallback, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if result != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return "", &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: fallback, Err: fmt.Errorf("failed to decode response data: %w", err)}
		}
	}

	return env.Message, nil
}

func (c *Client) token() string {
	if c.store == nil {
		return ""
	}
	s, err := c.store.Get()
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("failed to read session")
		}
		return ""
	}
	return s.Token
}

// invalidateSession clears the bound session after the server rejected its
// token, then hands control to the unauthorized handler.
func (c *Client) invalidateSession() {
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to clear session after 401")
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}
