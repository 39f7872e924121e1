package wizard

import (
	"fmt"
	"sync"

	"github.com/kbukum/profilewizard/logger"
)

// Router owns the visible step of a wizard and refuses forward moves into
// steps whose guard is not satisfied. Backward moves are never guarded.
//
// Invariant: 0 <= Step() < Total() at all times.
type Router struct {
	mu           sync.Mutex
	step         int
	total        int
	initial      int
	guard        Guard
	onStepChange func(from, to int)
	log          *logger.Logger
}

// NewRouter creates a router over total steps.
func NewRouter(total int, opts ...Option) (*Router, error) {
	if total <= 0 {
		return nil, fmt.Errorf("wizard: total steps must be positive, got %d", total)
	}
	r := &Router{total: total}
	for _, opt := range opts {
		opt(r)
	}
	if r.guard == nil {
		r.guard = func(int) bool { return true }
	}
	if r.log == nil {
		r.log = logger.GetGlobalLogger()
	}
	r.log = r.log.WithComponent("wizard")
	r.step = r.clamp(r.initial)
	return r, nil
}

func (r *Router) clamp(step int) int {
	switch {
	case step < 0:
		return 0
	case step >= r.total:
		return r.total - 1
	default:
		return step
	}
}

// GoNext advances one step if the guard allows entering it.
func (r *Router) GoNext() Result {
	r.mu.Lock()
	if r.step == r.total-1 {
		r.mu.Unlock()
		return ResultNoop
	}
	return r.moveLocked(r.step+1, true)
}

// GoPrev goes back one step unconditionally.
func (r *Router) GoPrev() Result {
	r.mu.Lock()
	if r.step == 0 {
		r.mu.Unlock()
		return ResultNoop
	}
	return r.moveLocked(r.step-1, false)
}

// SetStep jumps to idx. Indices outside [0, total) are rejected and leave
// the state unchanged. Jumps backwards or to the current step are always
// allowed; jumps forward require the guard of idx, exactly like GoNext.
// Intermediate steps are not checked.
func (r *Router) SetStep(idx int) Result {
	r.mu.Lock()
	switch {
	case idx < 0 || idx >= r.total:
		r.mu.Unlock()
		r.log.Debug("step out of range", logger.Fields(logger.FieldStep, idx, "total", r.total))
		return ResultOutOfRange
	case idx == r.step:
		r.mu.Unlock()
		return ResultNoop
	}
	return r.moveLocked(idx, idx > r.step)
}

// moveLocked performs a transition with r.mu held and releases it before
// running the step-change hook.
func (r *Router) moveLocked(to int, guarded bool) Result {
	from := r.step
	if guarded && !r.allowLocked(to) {
		r.mu.Unlock()
		r.log.Debug("transition blocked", logger.Fields("from", from, "to", to))
		return ResultBlocked
	}
	r.step = to
	hook := r.onStepChange
	r.mu.Unlock()

	if hook != nil {
		hook(from, to)
	}
	return ResultMoved
}

// allowLocked runs the guard with r.mu held. If the guard panics the lock
// is released before the panic continues.
func (r *Router) allowLocked(to int) bool {
	returned := false
	defer func() {
		if !returned {
			r.mu.Unlock()
		}
	}()
	ok := r.guard(to)
	returned = true
	return ok
}

// Restore moves to a persisted step without consulting guards or running
// the step-change hook. The value is clamped into range. It returns the
// step actually set.
func (r *Router) Restore(step int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.step = r.clamp(step)
	return r.step
}

// CanEnter evaluates the guard for idx. Steps at or before the current one
// are always enterable; out-of-range indices never are.
func (r *Router) CanEnter(idx int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || idx >= r.total {
		return false
	}
	if idx <= r.step {
		return true
	}
	return r.guard(idx)
}

// Step returns the current step index.
func (r *Router) Step() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

// Total returns the number of steps.
func (r *Router) Total() int { return r.total }

// Position returns the current step and total.
func (r *Router) Position() Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Position{Step: r.step, Total: r.total}
}

// IsFirst reports whether the current step is the first one.
func (r *Router) IsFirst() bool { return r.Step() == 0 }

// IsLast reports whether the current step is the last one.
func (r *Router) IsLast() bool { return r.Step() == r.total-1 }

// Progress returns the completed fraction for a step indicator, in (0, 1].
func (r *Router) Progress() float64 {
	return float64(r.Step()+1) / float64(r.total)
}
