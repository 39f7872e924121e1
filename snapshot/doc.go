// Package snapshot defines the durable form of a wizard draft and the
// stores that keep it between visits.
//
// Backends:
//
//   - MemoryStore: process-local, for tests and single-run tools
//   - FileStore: one file per key, written atomically
//   - redis.SnapshotStore: shared across devices (in package redis)
//
// File and Redis backends encode through a Codec. CodecFor picks plain JSON
// or sealed JSON depending on whether an encryption key is configured.
package snapshot
