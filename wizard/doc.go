// Package wizard implements guarded step navigation for a multi-step form.
//
// A Router holds the visible step. Forward moves (GoNext, or SetStep to a
// later index) must pass the caller's Guard for the target step; backward
// moves always succeed. A refused move returns ResultBlocked and changes
// nothing, so the caller can render "not ready" by asking CanEnter.
//
// A step restored from a saved session is trusted as-is (clamped into
// range). Guards are applied on the next forward move, never retroactively.
//
//	r, _ := wizard.NewRouter(4,
//	    wizard.WithGuard(func(step int) bool { return draft.Complete(step - 1) }),
//	    wizard.WithOnStepChange(func(from, to int) { scrollTop() }),
//	)
//	if r.GoNext() == wizard.ResultBlocked { ... }
package wizard
