package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/profilewizard/component"
	"github.com/kbukum/profilewizard/errors"
	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/observability"
	"github.com/kbukum/profilewizard/snapshot"
)

const meterName = "github.com/kbukum/profilewizard/autosave"

// Persister keeps an in-memory value and writes it to a snapshot store once
// the value has been quiet for the debounce delay. Only the latest value is
// written (trailing edge). Writes never overlap.
type Persister[T any] struct {
	key          string
	store        snapshot.Store[T]
	delay        time.Duration
	writeTimeout time.Duration
	flushOnStop  bool
	clock        Clock
	log          *logger.Logger
	meter        metric.Meter
	onLoad       func(snapshot.Snapshot[T])
	onStatus     func(Status, error)
	writes       metric.Int64Counter
	failures     metric.Int64Counter

	mu       sync.Mutex
	current  T
	version  uint64
	timer    Timer
	timerGen uint64
	status   Status
	err      error
	savedAt  time.Time
	started  bool
	stopped  bool
	baseCtx  context.Context

	// writeMu serializes store writes. persisted is the version the store is
	// known to hold; it is read and written with both locks held.
	writeMu      sync.Mutex
	persisted    uint64
	hasPersisted bool
}

// New creates a persister for key. initial is the in-memory value until a
// snapshot is loaded or Update is called.
func New[T any](key string, store snapshot.Store[T], initial T, opts ...Option[T]) (*Persister[T], error) {
	if key == "" {
		return nil, errors.MissingField("key")
	}
	if store == nil {
		return nil, fmt.Errorf("autosave: store is required")
	}
	p := &Persister[T]{
		key:          key,
		store:        store,
		current:      initial,
		delay:        defaultDelay,
		writeTimeout: defaultWriteTimeout,
		clock:        realClock{},
		baseCtx:      context.Background(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.delay <= 0 {
		return nil, errors.InvalidInput("delay", "must be positive")
	}
	if p.log == nil {
		p.log = logger.Get("autosave")
	}
	p.log = p.log.WithFields(logger.Fields(logger.FieldSessionKey, key))
	if p.meter == nil {
		p.meter = observability.Meter(meterName)
	}

	var err error
	p.writes, err = p.meter.Int64Counter("autosave.writes",
		metric.WithDescription("Snapshot writes that reached the store"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating autosave.writes counter: %w", err)
	}
	p.failures, err = p.meter.Int64Counter("autosave.failures",
		metric.WithDescription("Snapshot writes rejected by the store"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating autosave.failures counter: %w", err)
	}
	return p, nil
}

// Name implements component.Component.
func (p *Persister[T]) Name() string { return "autosave" }

// Key returns the storage key.
func (p *Persister[T]) Key() string { return p.key }

// Start loads the saved snapshot, if any, and makes it the in-memory
// baseline. The load callback runs before Start returns. A snapshot is not
// adopted, and the callback not run, when Update was called first. Loading
// never triggers a write. A failed load is logged and the persister keeps its
// initial value. Calling Start twice is a no-op.
func (p *Persister[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.baseCtx = context.WithoutCancel(ctx)
	p.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, observability.SpanSnapshotLoad)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrSessionKey, p.key))

	start := time.Now()
	snap, err := p.store.Load(ctx, p.key)
	if err != nil {
		observability.SetSpanError(ctx, err)
		loadErr := errors.LoadFailed(p.key, err)
		p.mu.Lock()
		p.err = loadErr
		p.mu.Unlock()
		p.log.Warn("snapshot load failed, starting fresh",
			logger.MergeWithError(logger.DurationFields("load", time.Since(start)), err))
		return nil
	}
	if snap == nil {
		p.log.Debug("no saved snapshot", logger.DurationFields("load", time.Since(start)))
		return nil
	}

	p.mu.Lock()
	adopted := p.version == 0
	if adopted {
		p.current = snap.Payload
		p.savedAt = snap.SavedAt
		p.persisted = 0
		p.hasPersisted = true
	}
	p.mu.Unlock()

	fields := logger.DurationFields("load", time.Since(start))
	fields["saved_at"] = snap.SavedAt
	if !adopted {
		p.log.Info("snapshot ignored, value edited before load", fields)
		return nil
	}
	p.log.Info("snapshot restored", fields)

	if p.onLoad != nil {
		p.onLoad(*snap)
	}
	return nil
}

// Update replaces the in-memory value and restarts the debounce delay.
// After Stop the value is still recorded but no write is scheduled.
func (p *Persister[T]) Update(v T) {
	p.mu.Lock()
	p.current = v
	p.version++
	p.cancelTimerLocked()
	if !p.stopped {
		gen := p.timerGen
		p.timer = p.clock.AfterFunc(p.delay, func() { p.fire(gen) })
	}
	st, err := p.setStatusLocked(StatusPending, nil)
	p.mu.Unlock()
	p.notify(st, err)
}

// ForceSave cancels the pending delay and writes the current value now.
// It returns once the store has answered; the status is then saved or error.
func (p *Persister[T]) ForceSave(ctx context.Context) error {
	p.mu.Lock()
	p.cancelTimerLocked()
	p.mu.Unlock()
	return p.flush(ctx)
}

// Stop cancels the pending delay. Timer callbacks that were already
// scheduled are ignored. With WithFlushOnStop any unsaved value is written
// before Stop returns.
func (p *Persister[T]) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.cancelTimerLocked()
	dirty := p.dirtyLocked()
	p.mu.Unlock()

	if p.flushOnStop && dirty {
		return p.flush(ctx)
	}
	return nil
}

// Health implements component.Component. A failed last write degrades health.
func (p *Persister[T]) Health(context.Context) component.Health {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := component.Health{Name: p.Name(), Status: component.StatusHealthy, Message: p.status.String()}
	if p.status == StatusError {
		h.Status = component.StatusDegraded
		if p.err != nil {
			h.Message = p.err.Error()
		}
	}
	return h
}

// Describe implements component.Describable.
func (p *Persister[T]) Describe() component.Description {
	return component.Description{
		Name:    "Autosave",
		Type:    "autosave",
		Details: fmt.Sprintf("key=%s delay=%s", p.key, p.delay),
	}
}

// Status returns the current save status.
func (p *Persister[T]) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Err returns the last load or save error, nil after a successful write.
func (p *Persister[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// SavedAt returns the time of the last durable write, or of the loaded
// snapshot when nothing has been written since.
func (p *Persister[T]) SavedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.savedAt
}

// Current returns the in-memory value.
func (p *Persister[T]) Current() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Pending reports whether a debounced write is scheduled.
func (p *Persister[T]) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

func (p *Persister[T]) fire(gen uint64) {
	p.mu.Lock()
	if gen != p.timerGen || p.stopped {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	ctx := p.baseCtx
	p.mu.Unlock()

	// The error is already reflected in the status.
	_ = p.flush(ctx)
}

// flush writes the newest in-memory value unless the store already holds it.
func (p *Persister[T]) flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	ver := p.version
	val := p.current
	if p.hasPersisted && ver <= p.persisted {
		var st Status
		var serr error
		notify := false
		if p.status != StatusSaved {
			st, serr = p.setStatusLocked(StatusSaved, nil)
			notify = true
		}
		p.mu.Unlock()
		if notify {
			p.notify(st, serr)
		}
		return nil
	}
	st, serr := p.setStatusLocked(StatusSaving, nil)
	p.mu.Unlock()
	p.notify(st, serr)

	snap := &snapshot.Snapshot[T]{Key: p.key, Payload: val, SavedAt: p.clock.Now()}
	err := p.write(ctx, snap)

	p.mu.Lock()
	if err != nil {
		saveErr := errors.SaveFailed(p.key, err)
		st, serr = p.setStatusLocked(StatusError, saveErr)
		p.mu.Unlock()
		p.notify(st, serr)
		return saveErr
	}
	p.persisted = ver
	p.hasPersisted = true
	p.savedAt = snap.SavedAt
	next := StatusSaved
	if p.version != ver || p.timer != nil {
		next = StatusPending
	}
	st, serr = p.setStatusLocked(next, nil)
	p.mu.Unlock()
	p.notify(st, serr)
	return nil
}

func (p *Persister[T]) write(ctx context.Context, snap *snapshot.Snapshot[T]) error {
	if p.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanSnapshotSave)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrSessionKey, p.key))

	start := time.Now()
	err := p.store.Save(ctx, snap)
	fields := logger.DurationFields("save", time.Since(start))
	if err != nil {
		observability.SetSpanError(ctx, err)
		p.failures.Add(ctx, 1)
		p.log.Warn("snapshot save failed", logger.MergeWithError(fields, err))
		return err
	}
	p.writes.Add(ctx, 1)
	p.log.Debug("snapshot saved", fields)
	return nil
}

func (p *Persister[T]) cancelTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.timerGen++
}

func (p *Persister[T]) dirtyLocked() bool {
	if p.hasPersisted {
		return p.version != p.persisted
	}
	return p.version > 0
}

// setStatusLocked records the new status and returns what the listener
// should be told once the lock is released.
func (p *Persister[T]) setStatusLocked(s Status, err error) (Status, error) {
	p.status = s
	if s == StatusError || s == StatusSaved {
		p.err = err
	}
	return s, err
}

func (p *Persister[T]) notify(s Status, err error) {
	if p.onStatus != nil {
		p.onStatus(s, err)
	}
}
