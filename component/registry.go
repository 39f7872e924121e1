package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/profilewizard/logger"
)

const defaultStopTimeout = 10 * time.Second

type slot struct {
	c       Component
	started bool
}

// Registry starts components in registration order and stops them in
// reverse. Register a component after the ones it depends on.
type Registry struct {
	mu          sync.RWMutex
	slots       []*slot
	log         *logger.Logger
	stopTimeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithStopTimeout bounds each component's Stop. Defaults to 10s.
func WithStopTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.stopTimeout = d }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{stopTimeout: defaultStopTimeout}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.GetGlobalLogger()
	}
	r.log = r.log.WithComponent("registry")
	return r
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if slices.ContainsFunc(r.slots, func(s *slot) bool { return s.c.Name() == name }) {
		return fmt.Errorf("component %s already registered", name)
	}
	r.slots = append(r.slots, &slot{c: c})
	r.log.Debug("component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts every component not yet running, in order. If one fails,
// everything already running is stopped again and the start error returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.started {
			continue
		}
		name := s.c.Name()
		began := time.Now()
		if err := s.c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.MergeWithError(logger.Fields(logger.FieldComponent, name), err))
			if stopErr := r.stopStarted(ctx); stopErr != nil {
				r.log.Warn("rollback incomplete", logger.MergeWithError(nil, stopErr))
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		s.started = true
		fields := logger.DurationFields("start", time.Since(began))
		fields[logger.FieldComponent] = name
		r.log.Debug("component started", fields)
	}
	return nil
}

// StopAll stops every running component in reverse order. A failing Stop
// does not keep the others from stopping; all errors are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopStarted(ctx)
}

func (r *Registry) stopStarted(ctx context.Context) error {
	var errs []error
	for _, s := range slices.Backward(r.slots) {
		if !s.started {
			continue
		}
		s.started = false
		name := s.c.Name()
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := s.c.Stop(stopCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("component stop failed", logger.MergeWithError(logger.Fields(logger.FieldComponent, name), err))
			continue
		}
		r.log.Debug("component stopped", logger.Fields(logger.FieldComponent, name))
	}
	return errors.Join(errs...)
}

// HealthAll probes every component in registration order. A result without
// a name takes the component's.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, 0, len(r.slots))
	for _, s := range r.slots {
		h := s.c.Health(ctx)
		if h.Name == "" {
			h.Name = s.c.Name()
		}
		out = append(out, h)
	}
	return out
}

// Describe collects the summary lines of Describable components.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Description
	for _, s := range r.slots {
		d, ok := s.c.(Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = s.c.Name()
		}
		out = append(out, desc)
	}
	return out
}
