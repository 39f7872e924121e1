package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	ErrCodeTimeout ErrorCode = iota
	ErrCodeConnection
	// ErrCodeAuth covers 401/403 and failures of the token source.
	ErrCodeAuth
	ErrCodeNotFound
	ErrCodeRateLimit
	// ErrCodeValidation covers other 4xx answers and requests that could not
	// be built.
	ErrCodeValidation
	ErrCodeServer
	// ErrCodeConflict is a 409, e.g. a duplicate technology name.
	ErrCodeConflict
)

var codeNames = [...]string{
	ErrCodeTimeout:    "timeout",
	ErrCodeConnection: "connection",
	ErrCodeAuth:       "auth",
	ErrCodeNotFound:   "not_found",
	ErrCodeRateLimit:  "rate_limit",
	ErrCodeValidation: "validation",
	ErrCodeServer:     "server",
	ErrCodeConflict:   "conflict",
}

// String returns the snake_case name used in logs and metrics.
func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return "unknown"
	}
	return codeNames[c]
}

// Error is a failed exchange with the backend. StatusCode is 0 when no
// response arrived.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// Body is the response body of a rejected request, if any.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func transportError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Retryable: true, Err: err}
}

// NewTimeoutError wraps a deadline hit while waiting for the backend.
func NewTimeoutError(err error) *Error { return transportError(ErrCodeTimeout, err) }

// NewConnectionError wraps a failure to reach the backend or read its answer.
func NewConnectionError(err error) *Error { return transportError(ErrCodeConnection, err) }

// NewAuthTokenError wraps a failure to obtain a bearer token.
func NewAuthTokenError(err error) *Error {
	return &Error{Code: ErrCodeAuth, Message: fmt.Sprintf("token source: %v", err), Err: err}
}

// NewValidationError reports a request that could not be built.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// ClassifyStatusCode maps a response status to an *Error. 2xx and 304 Not
// Modified are not errors and yield nil.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode == http.StatusNotModified || (statusCode >= 200 && statusCode < 300) {
		return nil
	}
	e := &Error{StatusCode: statusCode, Message: http.StatusText(statusCode), Body: body}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", statusCode)
	}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusConflict:
		e.Code = ErrCodeConflict
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	default:
		// 1xx and unfollowed 3xx.
		e.Code = ErrCodeServer
	}
	return e
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func IsTimeout(err error) bool     { return HasCode(err, ErrCodeTimeout) }
func IsConnection(err error) bool  { return HasCode(err, ErrCodeConnection) }
func IsAuth(err error) bool        { return HasCode(err, ErrCodeAuth) }
func IsNotFound(err error) bool    { return HasCode(err, ErrCodeNotFound) }
func IsRateLimit(err error) bool   { return HasCode(err, ErrCodeRateLimit) }
func IsConflict(err error) bool    { return HasCode(err, ErrCodeConflict) }
func IsServerError(err error) bool { return HasCode(err, ErrCodeServer) }

// IsRetryable reports whether a read that failed with err may be retried.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
