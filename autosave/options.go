package autosave

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/snapshot"
)

const (
	defaultDelay        = 3 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Option configures a Persister.
type Option[T any] func(*Persister[T])

// WithDelay sets the quiet period after the last change before a write. Defaults to 3s.
func WithDelay[T any](d time.Duration) Option[T] {
	return func(p *Persister[T]) { p.delay = d }
}

// WithOnLoad registers the callback invoked once by Start when a saved
// snapshot exists. It runs synchronously before Start returns.
func WithOnLoad[T any](fn func(snapshot.Snapshot[T])) Option[T] {
	return func(p *Persister[T]) { p.onLoad = fn }
}

// WithStatusListener registers a callback for every status change. It may
// run on the timer goroutine and must not block.
func WithStatusListener[T any](fn func(Status, error)) Option[T] {
	return func(p *Persister[T]) { p.onStatus = fn }
}

// WithClock replaces the wall clock.
func WithClock[T any](c Clock) Option[T] {
	return func(p *Persister[T]) { p.clock = c }
}

// WithLogger sets the persister logger.
func WithLogger[T any](l *logger.Logger) Option[T] {
	return func(p *Persister[T]) { p.log = l }
}

// WithMeter sets the meter for the autosave counters.
func WithMeter[T any](m metric.Meter) Option[T] {
	return func(p *Persister[T]) { p.meter = m }
}

// WithWriteTimeout bounds a single store write. Zero disables the bound.
func WithWriteTimeout[T any](d time.Duration) Option[T] {
	return func(p *Persister[T]) { p.writeTimeout = d }
}

// WithFlushOnStop makes Stop write any unsaved value before returning.
func WithFlushOnStop[T any](flush bool) Option[T] {
	return func(p *Persister[T]) { p.flushOnStop = flush }
}
