package wizard

// Result reports what a transition request did. A blocked or out-of-range
// request is an ordinary outcome, never an error.
type Result int

const (
	// ResultMoved means the current step changed.
	ResultMoved Result = iota
	// ResultBlocked means the guard refused the target step.
	ResultBlocked
	// ResultNoop means there was nowhere to go (first/last step or same step).
	ResultNoop
	// ResultOutOfRange means the requested index is outside [0, total).
	ResultOutOfRange
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultMoved:
		return "moved"
	case ResultBlocked:
		return "blocked"
	case ResultNoop:
		return "noop"
	case ResultOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Moved reports whether the step changed.
func (r Result) Moved() bool { return r == ResultMoved }

// Position is a snapshot of the router state.
type Position struct {
	Step  int `json:"step"`
	Total int `json:"total"`
}
