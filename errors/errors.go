package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError carries a code, a message fit for the "not saved" indicator and the
// underlying cause, if any.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

// New builds an AppError whose status and retry flag follow from code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: code.Status(), Retryable: code.Retryable()}
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail records one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err's chain holds an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// SaveFailed reports a snapshot write that never reached the store. The
// in-memory snapshot is untouched.
func SaveFailed(key string, cause error) *AppError {
	return New(ErrCodeSaveFailed, "Your changes are not saved yet.").WithDetail("key", key).WithCause(cause)
}

// LoadFailed reports a stored snapshot that could not be read or decoded.
func LoadFailed(key string, cause error) *AppError {
	return New(ErrCodeLoadFailed, "Saved progress could not be restored.").WithDetail("key", key).WithCause(cause)
}

// UnexpectedStatus reports a cached read answered with neither 200 nor 304.
// Server-side statuses are retryable.
func UnexpectedStatus(key string, status int) *AppError {
	e := New(ErrCodeUnexpectedStatus, fmt.Sprintf("Unexpected HTTP %d while reading %s.", status, key)).
		WithDetail("key", key).
		WithDetail("status", status)
	e.HTTPStatus = status
	e.Retryable = status >= 500
	return e
}

// Validation reports input that failed one or more checks.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// InvalidInput reports a single bad field.
func InvalidInput(field, reason string) *AppError {
	return New(ErrCodeInvalidInput, "Invalid input: "+reason).WithDetail("field", field)
}

// MissingField reports a required field left empty.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, "Missing required field: "+field).WithDetail("field", field)
}

// InvalidToken reports a bearer token that could not be parsed.
func InvalidToken(cause error) *AppError {
	return New(ErrCodeInvalidToken, "Invalid authentication token.").WithCause(cause)
}
