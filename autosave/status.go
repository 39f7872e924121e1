package autosave

// Status is the save state of a Persister. Exactly one holds at a time.
type Status int

const (
	// StatusIdle means nothing has changed since mount.
	StatusIdle Status = iota
	// StatusPending means a change is waiting for the debounce delay.
	StatusPending
	// StatusSaving means a write is in flight.
	StatusSaving
	// StatusSaved means the store holds the latest in-memory value.
	StatusSaved
	// StatusError means the last write failed. The value is still in memory.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
