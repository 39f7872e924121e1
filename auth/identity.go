package auth

import (
	"context"
	"strings"

	"github.com/kbukum/profilewizard/errors"
)

// GuestID is the identity used when no valid token is available.
const GuestID = "guest"

// Identity is the user a token was issued for.
type Identity struct {
	ID    string
	Email string
}

// IsGuest reports whether the identity is the anonymous fallback.
func (i Identity) IsGuest() bool { return i.ID == GuestID }

// IdentityFromToken reads the identity carried by a JWT. The signature is not
// verified. The user_id claim wins over sub when both are present.
func IdentityFromToken(raw string) (Identity, error) {
	c, err := parseClaims(raw)
	if err != nil {
		return Identity{}, errors.InvalidToken(err)
	}
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	if id == "" {
		return Identity{}, errors.MissingField("sub")
	}
	return Identity{ID: id, Email: c.Email}, nil
}

// CurrentIdentity resolves the identity behind src, falling back to the guest
// identity when there is no token or the token carries no usable identity.
// Only errors from src itself are returned.
func CurrentIdentity(ctx context.Context, src TokenSource) (Identity, error) {
	if src == nil {
		return Identity{ID: GuestID}, nil
	}
	raw, err := src.Token(ctx)
	if err != nil {
		return Identity{}, err
	}
	if raw == "" {
		return Identity{ID: GuestID}, nil
	}
	id, err := IdentityFromToken(raw)
	if err != nil {
		return Identity{ID: GuestID}, nil
	}
	return id, nil
}

// SessionKey derives the storage key of the resumable session for the
// current user: "<prefix>:<user id>" or "<prefix>:guest".
func SessionKey(ctx context.Context, src TokenSource, prefix string) (string, error) {
	id, err := CurrentIdentity(ctx, src)
	if err != nil {
		return "", err
	}
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		return id.ID, nil
	}
	return prefix + ":" + id.ID, nil
}
