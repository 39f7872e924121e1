package component

import (
	"context"
	"sync"
)

// Func is a Component built from plain functions. Health reports the last
// Start error as unhealthy and the health check result as degraded.
type Func struct {
	name        string
	start       func(ctx context.Context) error
	stop        func(ctx context.Context) error
	healthCheck func(ctx context.Context) error

	mu       sync.RWMutex
	started  bool
	startErr error
}

// NewFunc creates a component whose Start runs start.
func NewFunc(name string, start func(context.Context) error) *Func {
	return &Func{name: name, start: start}
}

// WithStop sets the function run by Stop.
func (f *Func) WithStop(fn func(context.Context) error) *Func {
	f.stop = fn
	return f
}

// WithHealthCheck sets a custom health check function.
func (f *Func) WithHealthCheck(fn func(context.Context) error) *Func {
	f.healthCheck = fn
	return f
}

// Name implements Component.
func (f *Func) Name() string { return f.name }

// Start implements Component.
func (f *Func) Start(ctx context.Context) error {
	var err error
	if f.start != nil {
		err = f.start(ctx)
	}
	f.mu.Lock()
	f.started = err == nil
	f.startErr = err
	f.mu.Unlock()
	return err
}

// Stop implements Component.
func (f *Func) Stop(ctx context.Context) error {
	f.mu.Lock()
	f.started = false
	f.mu.Unlock()
	if f.stop == nil {
		return nil
	}
	return f.stop(ctx)
}

// Health implements Component.
func (f *Func) Health(ctx context.Context) Health {
	f.mu.RLock()
	started, startErr := f.started, f.startErr
	f.mu.RUnlock()

	h := Health{Name: f.name, Status: StatusHealthy}
	switch {
	case startErr != nil:
		h.Status, h.Message = StatusUnhealthy, startErr.Error()
	case !started:
		h.Status, h.Message = StatusUnhealthy, "not started"
	case f.healthCheck != nil:
		if err := f.healthCheck(ctx); err != nil {
			h.Status, h.Message = StatusDegraded, err.Error()
		}
	}
	return h
}
