package condcache

import (
	"context"
	"fmt"

	"github.com/kbukum/profilewizard/errors"
)

// Outcome describes how a request was answered.
type Outcome int

const (
	// OutcomeMiss means the server sent a new payload.
	OutcomeMiss Outcome = iota
	// OutcomeHit means the server confirmed the cached payload.
	OutcomeHit
	// OutcomeBypass means the caller forced a live read.
	OutcomeBypass
)

// String returns the outcome name used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "miss"
	case OutcomeHit:
		return "hit"
	case OutcomeBypass:
		return "bypass"
	default:
		return "unknown"
	}
}

// Entry is the cached answer for one key.
type Entry[T any] struct {
	Key       string
	Validator string
	Payload   T
}

// Response is what an Executor got back from the server. Payload and
// Validator are only meaningful for 2xx responses.
type Response[T any] struct {
	StatusCode int
	Validator  string
	Payload    T
}

// Executor performs the read. A non-empty validator must be sent as the
// conditional header (If-None-Match).
type Executor[T any] func(ctx context.Context, validator string) (Response[T], error)

// Result is the answer handed to the caller. Payload is shared with the
// cache unless the cache was built WithClone.
type Result[T any] struct {
	Payload    T
	Outcome    Outcome
	StatusCode int
}

// StatusError is returned when the server answers with a status the cache
// cannot use. The cached entry is left untouched.
type StatusError struct {
	Key        string
	StatusCode int
	err        *errors.AppError
}

func newStatusError(key string, status int) *StatusError {
	return &StatusError{Key: key, StatusCode: status, err: errors.UnexpectedStatus(key, status)}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("condcache: %s", e.err.Error())
}

// Unwrap exposes the AppError so errors.HasCode works.
func (e *StatusError) Unwrap() error { return e.err }

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	force bool
}

// WithForce skips the cached validator so the server always sends a body.
// A response carrying a validator still refreshes the entry.
func WithForce() RequestOption {
	return func(o *requestOptions) { o.force = true }
}
