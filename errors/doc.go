// Package errors provides the structured error type shared by the session
// layer. An AppError carries a machine-readable code, a human message suitable
// for a "not saved" indicator, an HTTP status hint and a retryable flag.
//
// Expected outcomes such as a blocked step transition or a cache hit are never
// reported through this package; they are plain result values.
package errors
