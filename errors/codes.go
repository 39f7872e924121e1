package errors

import "net/http"

// ErrorCode is the machine-readable half of an AppError.
type ErrorCode string

const (
	ErrCodeSaveFailed       ErrorCode = "SAVE_FAILED"
	ErrCodeLoadFailed       ErrorCode = "LOAD_FAILED"
	ErrCodeUnexpectedStatus ErrorCode = "CACHE_UNEXPECTED_STATUS"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField     ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidToken     ErrorCode = "INVALID_TOKEN"
)

// codeMeta is the status hint and retry policy New derives from a code.
// Codes absent from the table map to 500 and are not retryable.
var codeMeta = map[ErrorCode]struct {
	status    int
	retryable bool
}{
	ErrCodeSaveFailed:       {http.StatusServiceUnavailable, true},
	ErrCodeLoadFailed:       {http.StatusServiceUnavailable, true},
	ErrCodeUnexpectedStatus: {http.StatusBadGateway, false},
	ErrCodeInvalidInput:     {http.StatusBadRequest, false},
	ErrCodeMissingField:     {http.StatusBadRequest, false},
	ErrCodeInvalidToken:     {http.StatusUnauthorized, false},
}

// Retryable reports whether failures with code are worth retrying.
func (c ErrorCode) Retryable() bool { return codeMeta[c].retryable }

// Status returns the HTTP status hint for code.
func (c ErrorCode) Status() int {
	if m, ok := codeMeta[c]; ok {
		return m.status
	}
	return http.StatusInternalServerError
}
