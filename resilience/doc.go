// Package resilience retries idempotent operations with exponential backoff.
//
// Only reads are retried by the session layer. Snapshot writes are never
// retried automatically: a failed save surfaces as an error status and the
// next edit or an explicit flush is the retry path.
package resilience
