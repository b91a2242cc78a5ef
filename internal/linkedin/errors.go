// File: internal/linkedin/errors.go
package linkedin

import (
	"errors"
	"fmt"
	"time"
)

// Kind tags every error produced by the sourcing subsystem. The orchestrator
// decides on retry and fallback by switching over the kind; nothing else
// inspects error internals.
type Kind string

const (
	// KindConfiguration: no usable credential at all. Fatal, never retried.
	KindConfiguration Kind = "configuration"
	// KindAuthentication: login failed (bad credentials, auth wall,
	// unresolved checkpoint). Retried at most once via fresh login.
	KindAuthentication Kind = "authentication"
	// KindChallenge: the login endpoint returned a non-PASS result
	// (CAPTCHA, email verification, etc.).
	KindChallenge Kind = "challenge"
	// KindRateLimit: anti-bot throttling detected; carries a backoff hint.
	KindRateLimit Kind = "rate_limit"
	// KindRequest: the API returned a non-2xx status; carries the code.
	KindRequest Kind = "request"
	// KindUnauthorized: HTTP 401 — the session cookie set is invalid or
	// expired. Triggers the refresh-then-retry tier exactly once.
	KindUnauthorized Kind = "unauthorized"
	// KindScraping: DOM extraction or navigation failed during a scrape.
	KindScraping Kind = "scraping"
	// KindNetwork: browser startup or connectivity failure.
	KindNetwork Kind = "network"
)

// Error is the single error type crossing component boundaries.
type Error struct {
	Kind       Kind
	StatusCode int           // set for KindRequest
	Backoff    time.Duration // set for KindRateLimit
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindRequest:
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.StatusCode, e.Message)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, &Error{Kind: k}) works against
// kind-only targets.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds a tagged error with a plain message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError tags an underlying error with a kind and context message.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewRequestError tags a non-2xx API response. The body is truncated so the
// error never drags a full payload around.
func NewRequestError(status int, body string) *Error {
	const maxBody = 500
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &Error{Kind: KindRequest, StatusCode: status, Message: body}
}

// NewRateLimitError tags a detected throttle with a suggested backoff.
func NewRateLimitError(message string, backoff time.Duration) *Error {
	return &Error{Kind: KindRateLimit, Message: message, Backoff: backoff}
}

// KindOf extracts the kind from an error chain, or "" for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusCodeOf returns the HTTP status carried by a request-kind error,
// or 0 when the error is not a request error.
func StatusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRequest {
		return e.StatusCode
	}
	return 0
}
