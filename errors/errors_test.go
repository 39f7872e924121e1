package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_DerivesFromCode(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		status    int
		retryable bool
	}{
		{ErrCodeSaveFailed, http.StatusServiceUnavailable, true},
		{ErrCodeLoadFailed, http.StatusServiceUnavailable, true},
		{ErrCodeUnexpectedStatus, http.StatusBadGateway, false},
		{ErrCodeInvalidInput, http.StatusBadRequest, false},
		{ErrCodeInvalidToken, http.StatusUnauthorized, false},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "msg")
			if err.HTTPStatus != tc.status || err.Retryable != tc.retryable {
				t.Errorf("got status=%d retryable=%v, want %d %v", err.HTTPStatus, err.Retryable, tc.status, tc.retryable)
			}
		})
	}
}

func TestSaveFailed(t *testing.T) {
	cause := stderrors.New("disk full")
	err := SaveFailed("wizard:u1", cause)
	if err.Code != ErrCodeSaveFailed || !err.Retryable {
		t.Errorf("unexpected %+v", err)
	}
	if err.Details["key"] != "wizard:u1" {
		t.Errorf("expected key detail, got %v", err.Details)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through errors.Is")
	}
}

func TestUnexpectedStatus(t *testing.T) {
	err := UnexpectedStatus("technologies", http.StatusBadGateway)
	if err.HTTPStatus != http.StatusBadGateway || !err.Retryable {
		t.Errorf("expected retryable 502, got %+v", err)
	}
	if UnexpectedStatus("k", http.StatusTeapot).Retryable {
		t.Error("4xx should not be retryable")
	}
	if !strings.Contains(err.Error(), "technologies") {
		t.Errorf("expected key in message: %s", err.Error())
	}
}

func TestAppError_Error(t *testing.T) {
	err := Validation("name is required")
	if err.Error() != "INVALID_INPUT: name is required" {
		t.Errorf("unexpected format %q", err.Error())
	}
	err.WithCause(stderrors.New("root"))
	if !strings.HasSuffix(err.Error(), "(cause: root)") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestHasCode_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", LoadFailed("k", nil))
	appErr, ok := AsAppError(wrapped)
	if !ok || appErr.Code != ErrCodeLoadFailed {
		t.Fatalf("expected LOAD_FAILED through wrapping, got %v", appErr)
	}
	if !HasCode(wrapped, ErrCodeLoadFailed) {
		t.Error("HasCode should match")
	}
	if HasCode(stderrors.New("plain"), ErrCodeLoadFailed) {
		t.Error("HasCode should not match plain errors")
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *AppError
		code  ErrorCode
		field any
	}{
		{"invalid input", InvalidInput("name", "empty"), ErrCodeInvalidInput, "name"},
		{"missing field", MissingField("sub"), ErrCodeMissingField, "sub"},
		{"invalid token", InvalidToken(nil), ErrCodeInvalidToken, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Details["field"] != tc.field {
				t.Errorf("expected field %v, got %v", tc.field, tc.err.Details["field"])
			}
		})
	}
}
