package wizard

import "github.com/kbukum/profilewizard/logger"

// Guard decides whether step may be entered by forward navigation.
// Guards must be pure: they are re-evaluated on every attempt and on every
// CanEnter call. They run while the router is locked and must not call
// back into it.
type Guard func(step int) bool

// Option configures a Router.
type Option func(*Router)

// WithGuard sets the forward-navigation guard. Without one every step is enterable.
func WithGuard(g Guard) Option {
	return func(r *Router) { r.guard = g }
}

// WithOnStepChange registers a hook invoked after every successful move.
// It runs outside the router lock.
func WithOnStepChange(fn func(from, to int)) Option {
	return func(r *Router) { r.onStepChange = fn }
}

// WithInitialStep starts the router at a restored step. The value is
// clamped into range and trusted: guards only apply to the next forward move.
func WithInitialStep(step int) Option {
	return func(r *Router) { r.initial = step }
}

// WithLogger sets the router logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Router) { r.log = l }
}
