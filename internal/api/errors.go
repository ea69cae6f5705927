package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Kind classifies a failed API call.
type Kind int

const (
	// KindNetwork means the request did not complete.
	KindNetwork Kind = iota
	// KindUnauthenticated means the server rejected the bearer token (401).
	KindUnauthenticated
	// KindValidation is any other 4xx; Message is meant to be shown inline.
	KindValidation
	// KindServer is a 5xx or an unreadable response.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by every Client operation.
type Error struct {
	Kind       Kind
	StatusCode int
	// Message is human readable: the server's message field or the
	// operation's generic fallback.
	Message string
	// Details holds the decoded error body, if any.
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnauthorized returns true if the server rejected the credentials.
func (e *Error) IsUnauthorized() bool {
	return e.Kind == KindUnauthenticated
}

// IsNetwork returns true if the request never got a response.
func (e *Error) IsNetwork() bool {
	return e.Kind == KindNetwork
}

// IsValidationError returns true for 4xx responses other than 401.
func (e *Error) IsValidationError() bool {
	return e.Kind == KindValidation
}

// IsServerError returns true for 5xx responses.
func (e *Error) IsServerError() bool {
	return e.Kind == KindServer
}

// Mentions reports whether the message contains any of the words, ignoring case.
func (e *Error) Mentions(words ...string) bool {
	msg := strings.ToLower(e.Message)
	for _, w := range words {
		if strings.Contains(msg, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthenticated
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// parseError builds an Error from a non-2xx response.
func parseError(statusCode int, body []byte, fallback string) *Error {
	apiErr := &Error{
		Kind:       kindForStatus(statusCode),
		StatusCode: statusCode,
		Message:    fallback,
	}

	var details map[string]interface{}
	if err := json.Unmarshal(body, &details); err != nil {
		return apiErr
	}
	apiErr.Details = details

	if msg, ok := details["message"].(string); ok && msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}

func networkError(err error, fallback string) *Error {
	return &Error{Kind: KindNetwork, Message: fallback, Err: err}
}
