// Package auth holds the session layer's only view of authentication: a
// TokenSource that yields the current valid bearer token, or "" when the user
// is not signed in.
//
// Token issuance and refresh live elsewhere. This package reads the identity
// carried by a token (without verifying its signature; the backend does that)
// to derive the storage key of the resumable wizard session, falling back to
// a guest key for anonymous users.
package auth
