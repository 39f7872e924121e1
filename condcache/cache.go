package condcache

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/observability"
)

const meterName = "github.com/kbukum/profilewizard/condcache"

// Option configures a Cache.
type Option func(*options)

type options struct {
	name  string
	log   *logger.Logger
	meter metric.Meter
	clone any
}

// WithName labels the cache in logs and metrics, usually the resource family.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the cache logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMeter sets the meter for the cache counters.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithClone sets how payloads are copied between the cache and its callers.
// Without it a reference-typed payload, such as a slice, is shared: the
// caller must then treat Result.Payload as read-only. fn must have the
// cache's payload type; a mismatching function is ignored with a warning.
func WithClone[T any](fn func(T) T) Option {
	return func(o *options) { o.clone = fn }
}

// genTag identifies the cache state a request started against. A response
// is applied only if neither the key nor the whole cache was invalidated
// in between.
type genTag struct {
	epoch uint64
	key   uint64
}

// Cache remembers the last payload and validator per key and revalidates
// instead of refetching. Entries never expire; they are dropped only by
// Invalidate, InvalidateAll or a fresh response without a validator.
type Cache[T any] struct {
	name          string
	log           *logger.Logger
	clone         func(T) T
	requests      metric.Int64Counter
	invalidations metric.Int64Counter
	attrs         attribute.Set

	mu      sync.Mutex
	entries map[string]Entry[T]
	gens    map[string]uint64
	epoch   uint64
}

// New creates an empty cache.
func New[T any](opts ...Option) *Cache[T] {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("condcache")
	}
	if o.meter == nil {
		o.meter = observability.Meter(meterName)
	}

	c := &Cache[T]{
		name:    o.name,
		log:     o.log.WithFields(logger.Fields("cache", o.name)),
		attrs:   attribute.NewSet(attribute.String("cache", o.name)),
		entries: make(map[string]Entry[T]),
		gens:    make(map[string]uint64),
	}
	switch fn := o.clone.(type) {
	case nil:
	case func(T) T:
		c.clone = fn
	default:
		c.log.Warn("clone function ignored", logger.Fields("type", fmt.Sprintf("%T", fn)))
	}

	var err error
	c.requests, err = o.meter.Int64Counter("condcache.requests",
		metric.WithDescription("Cache requests by outcome"),
	)
	if err != nil {
		c.log.Warn("condcache.requests counter unavailable", logger.Fields(logger.FieldError, err.Error()))
		c.requests, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("condcache.requests")
	}
	c.invalidations, err = o.meter.Int64Counter("condcache.invalidations",
		metric.WithDescription("Cache invalidations"),
	)
	if err != nil {
		c.log.Warn("condcache.invalidations counter unavailable", logger.Fields(logger.FieldError, err.Error()))
		c.invalidations, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("condcache.invalidations")
	}
	return c
}

// Name returns the cache label.
func (c *Cache[T]) Name() string { return c.name }

// Request reads key through exec.
//
// Without WithForce a cached validator is sent along. A 304 returns the
// cached payload untouched, a 2xx replaces the entry, any other status is
// a *StatusError and an executor error is returned as is; neither touches
// the entry. If the key is invalidated while a request is in flight the
// response is not stored, and a 304 is followed by one unconditional read
// rather than serving the invalidated payload.
func (c *Cache[T]) Request(ctx context.Context, key string, exec Executor[T], opts ...RequestOption) (Result[T], error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanCacheRequest)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrCacheKey, key))

	outcome := OutcomeMiss
	if ro.force {
		outcome = OutcomeBypass
	}
	res, err := c.request(ctx, key, exec, ro.force, outcome, true)
	if err != nil {
		c.requests.Add(ctx, 1, metric.WithAttributeSet(c.attrs), metric.WithAttributes(
			attribute.String("outcome", "error"),
		))
		observability.SetSpanError(ctx, err)
		c.log.Debug("cache request failed", logger.Fields(
			logger.FieldCacheKey, key,
			logger.FieldError, err.Error(),
		))
		return res, err
	}

	span.SetAttributes(attribute.String(observability.AttrOutcome, res.Outcome.String()))
	c.requests.Add(ctx, 1, metric.WithAttributeSet(c.attrs), metric.WithAttributes(
		attribute.String("outcome", res.Outcome.String()),
	))
	c.log.Debug("cache request", logger.Fields(
		logger.FieldCacheKey, key,
		logger.FieldOutcome, res.Outcome.String(),
		logger.FieldStatus, res.StatusCode,
	))
	return res, nil
}

func (c *Cache[T]) request(ctx context.Context, key string, exec Executor[T], force bool, outcome Outcome, refetch bool) (Result[T], error) {
	c.mu.Lock()
	tag := c.tagLocked(key)
	var validator string
	var cached T
	if !force {
		if e, ok := c.entries[key]; ok {
			validator = e.Validator
			cached = e.Payload
		}
	}
	c.mu.Unlock()

	resp, err := exec(ctx, validator)
	if err != nil {
		return Result[T]{}, err
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if validator == "" {
			return Result[T]{}, newStatusError(key, resp.StatusCode)
		}
		c.mu.Lock()
		current := c.tagLocked(key) == tag
		c.mu.Unlock()
		if current {
			return Result[T]{Payload: c.copy(cached), Outcome: OutcomeHit, StatusCode: resp.StatusCode}, nil
		}
		if !refetch {
			return Result[T]{}, newStatusError(key, resp.StatusCode)
		}
		c.log.Debug("entry invalidated during revalidation, refetching", logger.Fields(logger.FieldCacheKey, key))
		return c.request(ctx, key, exec, true, outcome, false)

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.mu.Lock()
		if c.tagLocked(key) == tag {
			if resp.Validator != "" {
				c.entries[key] = Entry[T]{Key: key, Validator: resp.Validator, Payload: c.copy(resp.Payload)}
			} else {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
		return Result[T]{Payload: resp.Payload, Outcome: outcome, StatusCode: resp.StatusCode}, nil

	default:
		return Result[T]{}, newStatusError(key, resp.StatusCode)
	}
}

func (c *Cache[T]) copy(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

func (c *Cache[T]) tagLocked(key string) genTag {
	return genTag{epoch: c.epoch, key: c.gens[key]}
}

// Invalidate drops the entry for key. Requests already in flight for key
// will not store their response.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()

	c.invalidations.Add(context.Background(), 1, metric.WithAttributeSet(c.attrs))
	c.log.Debug("cache entry invalidated", logger.Fields(logger.FieldCacheKey, key))
}

// InvalidateAll drops every entry.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]Entry[T])
	c.gens = make(map[string]uint64)
	c.epoch++
	c.mu.Unlock()

	c.invalidations.Add(context.Background(), 1, metric.WithAttributeSet(c.attrs))
	c.log.Debug("cache invalidated", logger.Fields("entries", n))
}

// Peek returns the cached entry for key without contacting the server.
func (c *Cache[T]) Peek(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok {
		e.Payload = c.copy(e.Payload)
	}
	return e, ok
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
