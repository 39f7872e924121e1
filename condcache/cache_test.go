package condcache

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/profilewizard/errors"
	"github.com/kbukum/profilewizard/logger"
)

// origin answers like an ETag-aware server holding one versioned value.
type origin struct {
	mu         sync.Mutex
	version    int
	payload    []string
	validators []string
	status     int
	err        error
	noETag     bool
	before     func()
}

func newOrigin(payload ...string) *origin {
	return &origin{version: 1, payload: payload}
}

func (o *origin) etag() string { return fmt.Sprintf(`"v%d"`, o.version) }

func (o *origin) set(payload ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.version++
	o.payload = payload
}

func (o *origin) exec(_ context.Context, validator string) (Response[[]string], error) {
	o.mu.Lock()
	before := o.before
	o.before = nil
	o.mu.Unlock()
	if before != nil {
		before()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.validators = append(o.validators, validator)
	if o.err != nil {
		return Response[[]string]{}, o.err
	}
	if o.status != 0 {
		return Response[[]string]{StatusCode: o.status}, nil
	}
	if validator != "" && validator == o.etag() {
		return Response[[]string]{StatusCode: http.StatusNotModified}, nil
	}
	resp := Response[[]string]{StatusCode: http.StatusOK, Payload: append([]string(nil), o.payload...)}
	if !o.noETag {
		resp.Validator = o.etag()
	}
	return resp, nil
}

func (o *origin) sent() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.validators...)
}

func newTestCache() *Cache[[]string] {
	return New[[]string](WithName("technologies"), WithLogger(logger.NewNop()))
}

func TestCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	o := newOrigin("Go", "Rust")

	res, err := c.Request(ctx, "all", o.exec)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if res.Outcome != OutcomeMiss || res.StatusCode != http.StatusOK || len(res.Payload) != 2 {
		t.Fatalf("unexpected first result %+v", res)
	}

	res, err = c.Request(ctx, "all", o.exec)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if res.Outcome != OutcomeHit || res.StatusCode != http.StatusNotModified {
		t.Fatalf("expected hit, got %+v", res)
	}
	if len(res.Payload) != 2 || res.Payload[0] != "Go" {
		t.Errorf("expected cached payload, got %v", res.Payload)
	}

	sent := o.sent()
	if sent[0] != "" || sent[1] != `"v1"` {
		t.Errorf("unexpected validators sent %q", sent)
	}
	e, ok := c.Peek("all")
	if !ok || e.Validator != `"v1"` || e.Key != "all" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestCache_ChangedPayloadReplacesEntry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	o := newOrigin("Go")

	if _, err := c.Request(ctx, "all", o.exec); err != nil {
		t.Fatal(err)
	}
	o.set("Go", "Zig")
	res, err := c.Request(ctx, "all", o.exec)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeMiss || len(res.Payload) != 2 {
		t.Fatalf("expected fresh payload, got %+v", res)
	}
	if e, _ := c.Peek("all"); e.Validator != `"v2"` {
		t.Errorf("expected validator v2, got %q", e.Validator)
	}
}

func TestCache_FailuresLeaveEntryUntouched(t *testing.T) {
	boom := stderrors.New("connection reset")
	tests := []struct {
		name   string
		status int
		err    error
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !stderrors.As(err, &se) || se.StatusCode != http.StatusInternalServerError || se.Key != "all" {
					t.Errorf("expected StatusError 500, got %v", err)
				}
				if !errors.HasCode(err, errors.ErrCodeUnexpectedStatus) {
					t.Errorf("expected CACHE_UNEXPECTED_STATUS code, got %v", err)
				}
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !stderrors.As(err, &se) || se.StatusCode != http.StatusNotFound {
					t.Errorf("expected StatusError 404, got %v", err)
				}
			},
		},
		{
			name: "executor error",
			err:  boom,
			check: func(t *testing.T, err error) {
				if !stderrors.Is(err, boom) {
					t.Errorf("expected executor error, got %v", err)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			c := newTestCache()
			o := newOrigin("Go")
			if _, err := c.Request(ctx, "all", o.exec); err != nil {
				t.Fatal(err)
			}

			o.status, o.err = tc.status, tc.err
			_, err := c.Request(ctx, "all", o.exec)
			if err == nil {
				t.Fatal("expected error")
			}
			tc.check(t, err)

			e, ok := c.Peek("all")
			if !ok || e.Validator != `"v1"` || e.Payload[0] != "Go" {
				t.Fatalf("entry changed after failure: %+v, %v", e, ok)
			}

			o.status, o.err = 0, nil
			res, err := c.Request(ctx, "all", o.exec)
			if err != nil || res.Outcome != OutcomeHit {
				t.Errorf("expected revalidation to succeed afterwards, got %+v, %v", res, err)
			}
		})
	}
}

func TestCache_ForceBypassesValidatorAndRefreshes(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	o := newOrigin("Go")
	if _, err := c.Request(ctx, "all", o.exec); err != nil {
		t.Fatal(err)
	}
	o.set("Go", "Elixir")

	res, err := c.Request(ctx, "all", o.exec, WithForce())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeBypass || len(res.Payload) != 2 {
		t.Fatalf("expected live payload, got %+v", res)
	}
	if sent := o.sent(); sent[len(sent)-1] != "" {
		t.Errorf("forced read must not send a validator, sent %q", sent[len(sent)-1])
	}

	res, err = c.Request(ctx, "all", o.exec)
	if err != nil || res.Outcome != OutcomeHit || len(res.Payload) != 2 {
		t.Errorf("forced read should re-prime the entry, got %+v, %v", res, err)
	}
}

func TestCache_ForceWithoutEntry(t *testing.T) {
	c := newTestCache()
	o := newOrigin("Go")
	res, err := c.Request(context.Background(), "all", o.exec, WithForce())
	if err != nil || res.Outcome != OutcomeBypass {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}
	if c.Len() != 1 {
		t.Errorf("expected forced read to prime the cache, len=%d", c.Len())
	}
}

func TestCache_ResponseWithoutValidatorDropsEntry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	o := newOrigin("Go")
	if _, err := c.Request(ctx, "all", o.exec); err != nil {
		t.Fatal(err)
	}
	o.set("Go", "C")
	o.noETag = true

	res, err := c.Request(ctx, "all", o.exec)
	if err != nil || len(res.Payload) != 2 {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}
	if _, ok := c.Peek("all"); ok {
		t.Error("expected entry to be removed")
	}
}

func TestCache_NotModifiedWithoutValidatorIsError(t *testing.T) {
	c := newTestCache()
	exec := func(context.Context, string) (Response[[]string], error) {
		return Response[[]string]{StatusCode: http.StatusNotModified}, nil
	}
	_, err := c.Request(context.Background(), "all", exec)
	var se *StatusError
	if !stderrors.As(err, &se) || se.StatusCode != http.StatusNotModified {
		t.Fatalf("expected StatusError 304, got %v", err)
	}
}

func TestCache_InvalidateDuringFetchDiscardsResponse(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	o := newOrigin("Go")
	o.before = func() { c.Invalidate("all") }

	res, err := c.Request(ctx, "all", o.exec)
	if err != nil || res.Payload[0] != "Go" {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}
	if _, ok := c.Peek("all"); ok {
		t.Error("response that raced an invalidation must not be stored")
	}
}

func TestCache_InvalidateDuringRevalidationRefetches(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *Cache[[]string])
	}{
		{"single key", func(c *Cache[[]string]) { c.Invalidate("all") }},
		{"whole cache", func(c *Cache[[]string]) { c.InvalidateAll() }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			c := newTestCache()
			o := newOrigin("Go")
			if _, err := c.Request(ctx, "all", o.exec); err != nil {
				t.Fatal(err)
			}

			// The server still answers 304 for the revalidation, but the
			// entry it refers to was dropped while the request was in flight.
			o.before = func() { tc.invalidate(c) }
			res, err := c.Request(ctx, "all", o.exec)
			if err != nil {
				t.Fatal(err)
			}
			if res.Outcome != OutcomeMiss || res.StatusCode != http.StatusOK {
				t.Fatalf("expected a live re-read, got %+v", res)
			}
			sent := o.sent()
			if len(sent) != 3 || sent[1] != `"v1"` || sent[2] != "" {
				t.Fatalf("expected revalidation then unconditional read, got %q", sent)
			}
			if _, ok := c.Peek("all"); !ok {
				t.Error("expected the re-read to prime the cache again")
			}
		})
	}
}

func TestCache_InvalidateOtherKeyKeepsResponse(t *testing.T) {
	c := newTestCache()
	o := newOrigin("Go")
	o.before = func() { c.Invalidate("other") }
	if _, err := c.Request(context.Background(), "all", o.exec); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Peek("all"); !ok {
		t.Error("invalidating an unrelated key must not discard the response")
	}
}

func TestCache_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	for _, key := range []string{"skills", "experience", "education"} {
		if _, err := c.Request(ctx, key, newOrigin(key).exec); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", c.Len())
	}
	c.Invalidate("skills")
	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}

func TestCache_ConcurrentKeys(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			o := newOrigin(key)
			for j := 0; j < 20; j++ {
				if _, err := c.Request(ctx, key, o.exec); err != nil {
					t.Errorf("request %s: %v", key, err)
					return
				}
				if j%7 == 0 {
					c.Invalidate(key)
				}
			}
		}(i)
	}
	wg.Wait()
	for _, key := range []string{"k0", "k1", "k2", "k3"} {
		if e, ok := c.Peek(key); ok && e.Payload[0] != key {
			t.Errorf("entry %s holds %v", key, e.Payload)
		}
	}
}

func TestCache_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	ctx := context.Background()
	c := New[[]string](WithLogger(logger.NewNop()), WithMeter(provider.Meter("test")))
	o := newOrigin("Go")

	_, _ = c.Request(ctx, "all", o.exec)
	_, _ = c.Request(ctx, "all", o.exec)
	_, _ = c.Request(ctx, "all", o.exec, WithForce())
	c.InvalidateAll()

	broken := newOrigin("Go")
	broken.status = http.StatusInternalServerError
	if _, err := c.Request(ctx, "broken", broken.exec); err == nil {
		t.Fatal("expected status error")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	byOutcome := map[string]int64{}
	var invalidations int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "condcache.requests":
					v, _ := dp.Attributes.Value("outcome")
					byOutcome[v.AsString()] += dp.Value
				case "condcache.invalidations":
					invalidations += dp.Value
				}
			}
		}
	}
	if byOutcome["miss"] != 1 || byOutcome["hit"] != 1 || byOutcome["bypass"] != 1 || byOutcome["error"] != 1 {
		t.Errorf("unexpected request counts %v", byOutcome)
	}
	if invalidations != 1 {
		t.Errorf("expected 1 invalidation, got %d", invalidations)
	}
}

func TestCache_CloneIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	c := New[[]string](WithLogger(logger.NewNop()), WithClone(func(s []string) []string {
		return append([]string(nil), s...)
	}))
	o := newOrigin("go", "rust")

	first, err := c.Request(ctx, "all", o.exec)
	if err != nil {
		t.Fatal(err)
	}
	first.Payload[0] = "edited"

	hit, err := c.Request(ctx, "all", o.exec)
	if err != nil {
		t.Fatal(err)
	}
	if hit.Outcome != OutcomeHit || hit.Payload[0] != "go" {
		t.Fatalf("expected untouched cached payload, got %+v", hit)
	}
	hit.Payload[1] = "edited"

	again, err := c.Request(ctx, "all", o.exec)
	if err != nil {
		t.Fatal(err)
	}
	if again.Payload[0] != "go" || again.Payload[1] != "rust" {
		t.Errorf("cached payload changed to %v", again.Payload)
	}
	if e, _ := c.Peek("all"); e.Payload[1] != "rust" {
		t.Errorf("entry changed to %v", e.Payload)
	}
}

func TestCache_CloneOfWrongTypeIgnored(t *testing.T) {
	c := New[[]string](WithLogger(logger.NewNop()), WithClone(func(n int) int { return n }))
	o := newOrigin("go")
	res, err := c.Request(context.Background(), "all", o.exec)
	if err != nil || len(res.Payload) != 1 {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}
}

func TestOutcome_String(t *testing.T) {
	for o, want := range map[Outcome]string{
		OutcomeMiss: "miss", OutcomeHit: "hit", OutcomeBypass: "bypass", Outcome(9): "unknown",
	} {
		if o.String() != want {
			t.Errorf("expected %q, got %q", want, o.String())
		}
	}
}
