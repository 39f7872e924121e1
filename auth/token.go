package auth

import (
	"context"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// TokenSource yields the bearer token to attach to outbound requests.
// An empty token with a nil error means "no authenticated user".
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken returns the same token on every call.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// Anonymous is a TokenSource for sessions without a signed-in user.
var Anonymous TokenSource = StaticToken("")

// ValidOption configures ValidTokens.
type ValidOption func(*validSource)

// WithLeeway treats tokens expiring within d as already expired.
func WithLeeway(d time.Duration) ValidOption {
	return func(v *validSource) { v.leeway = d }
}

// WithNow overrides the clock used for expiry checks.
func WithNow(now func() time.Time) ValidOption {
	return func(v *validSource) { v.now = now }
}

type validSource struct {
	src    TokenSource
	leeway time.Duration
	now    func() time.Time
}

// ValidTokens wraps src so that malformed or expired JWTs are reported as "".
// Callers therefore never send a token the backend is known to reject.
func ValidTokens(src TokenSource, opts ...ValidOption) TokenSource {
	v := &validSource{src: src, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Token implements TokenSource.
func (v *validSource) Token(ctx context.Context) (string, error) {
	raw, err := v.src.Token(ctx)
	if err != nil || raw == "" {
		return "", err
	}
	claims, err := parseClaims(raw)
	if err != nil {
		return "", nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", nil
	}
	if exp != nil && !v.now().Add(v.leeway).Before(exp.Time) {
		return "", nil
	}
	return raw, nil
}

// claims is the subset of token claims the session layer reads.
type claims struct {
	gojwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

func parseClaims(raw string) (*claims, error) {
	c := &claims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(raw, c); err != nil {
		return nil, err
	}
	return c, nil
}
