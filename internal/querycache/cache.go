// Package querycache is an in-memory query cache keyed by resource identity.
//
// Concurrent reads of one key share a single fetch. Every entry is in one of
// three states:
//
//	Fresh              served from memory
//	Stale              served after a refetch
//	OptimisticPending  served from memory, never refetched until released
//
// Operations that replace an entry's value (Write, Pin, Restore, Evict) or
// explicitly Cancel it bump the entry generation and cancel its in-flight
// fetch, so a response that arrives late is discarded instead of written.
package querycache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// State of a cache entry.
type State uint8

const (
	// StateFresh entries are served without a network read.
	StateFresh State = iota + 1
	// StateStale entries are refetched on the next Fetch.
	StateStale
	// StateOptimisticPending entries hold a locally applied change and are
	// served as-is until Release, Write, Restore or Evict.
	StateOptimisticPending
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateOptimisticPending:
		return "optimistic_pending"
	default:
		return "unknown"
	}
}

// Fetcher loads the value of one key.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	value     any
	state     State
	updatedAt time.Time
	usedAt    time.Time

	gen    uint64
	cancel context.CancelFunc
	// version changes whenever value is replaced.
	version uint64
}

// Options configures a Cache.
type Options struct {
	// StaleTime turns Fresh entries older than it into Stale ones on read.
	// Zero keeps entries fresh until invalidated.
	StaleTime time.Duration
	// GCTime is how long an unused entry survives before Run collects it.
	// Zero disables collection.
	GCTime time.Duration

	MeterProvider metric.MeterProvider
	Logger        *zap.Logger
	Clock         func() time.Time
}

func (o *Options) setDefaults() {
	if o.MeterProvider == nil {
		o.MeterProvider = noop.NewMeterProvider()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Cache is safe for concurrent use.
type Cache struct {
	staleTime time.Duration
	gcTime    time.Duration
	now       func() time.Time
	lg        *zap.Logger
	metrics   metrics

	flights singleflight.Group

	mu      sync.Mutex
	seq     uint64
	entries map[string]*entry
}

// New creates a Cache.
func New(opts Options) (*Cache, error) {
	opts.setDefaults()

	m, err := newMetrics(opts.MeterProvider)
	if err != nil {
		return nil, errors.Wrap(err, "metrics")
	}
	return &Cache{
		staleTime: opts.StaleTime,
		gcTime:    opts.GCTime,
		now:       opts.Clock,
		lg:        opts.Logger,
		metrics:   m,
		entries:   make(map[string]*entry),
	}, nil
}

// nextGen must be called with c.mu held.
func (c *Cache) nextGen() uint64 {
	c.seq++
	return c.seq
}

// servable reports whether e can be returned without fetching.
func (c *Cache) servable(e *entry, now time.Time) bool {
	switch e.state {
	case StateOptimisticPending:
		return true
	case StateFresh:
		if c.staleTime > 0 && now.Sub(e.updatedAt) >= c.staleTime {
			e.state = StateStale
			return false
		}
		return true
	default:
		return false
	}
}

// Fetch returns the cached value of key when it is servable, otherwise it
// runs fetch and caches the result. Concurrent callers for the same key share
// one fetch. The fetch is detached from ctx: a caller giving up does not
// cancel it for the others.
func (c *Cache) Fetch(ctx context.Context, key string, fetch Fetcher) (any, error) {
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.state != 0 && c.servable(e, now) {
		e.usedAt = now
		v := e.value
		c.mu.Unlock()

		c.metrics.hit(ctx, key)
		return v, nil
	}
	if !ok {
		e = &entry{gen: c.nextGen()}
		c.entries[key] = e
	}
	e.usedAt = now
	gen := e.gen
	c.mu.Unlock()

	c.metrics.miss(ctx, key)

	flight := key + "#" + strconv.FormatUint(gen, 10)
	ch := c.flights.DoChan(flight, func() (any, error) {
		return c.run(context.WithoutCancel(ctx), key, gen, fetch)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// run executes one fetch for generation gen of key.
func (c *Cache) run(ctx context.Context, key string, gen uint64, fetch Fetcher) (any, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		if cur, ok := c.Read(key); ok {
			return c.superseded(ctx, key, cur, nil)
		}
		// Nothing to serve instead: load for the waiting callers only.
		v, err := fetch(ctx)
		return c.superseded(ctx, key, v, err)
	}
	e.cancel = cancel
	c.mu.Unlock()

	v, err := fetch(ctx)

	c.mu.Lock()
	e, ok = c.entries[key]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		return c.superseded(ctx, key, v, err)
	}
	e.cancel = nil
	if err != nil {
		c.mu.Unlock()
		c.metrics.fetchError(ctx, key)
		return nil, err
	}
	e.value = v
	e.version = c.nextGen()
	e.state = StateFresh
	e.updatedAt = c.now()
	c.mu.Unlock()

	return v, nil
}

// superseded resolves a fetch whose generation is no longer current. Its
// result is never cached. Waiting callers get the entry's current value when
// there is one, otherwise the fetch result itself.
func (c *Cache) superseded(ctx context.Context, key string, v any, err error) (any, error) {
	c.metrics.discard(ctx, key)
	c.lg.Debug("Discarded superseded fetch", zap.String("key", key))

	if cur, ok := c.Read(key); ok {
		return cur, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Read returns the cached value of key without fetching.
func (c *Cache) Read(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state == 0 {
		return nil, false
	}
	return e.value, true
}

// State returns the state of key.
func (c *Cache) State(key string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state == 0 {
		return 0, false
	}
	return e.state, true
}

// supersede moves e to a new generation so the fetch in flight is not
// cached. The fetch itself is cancelled only when e has a value its waiters
// can fall back to; a first load keeps running for them. Must be called with
// c.mu held.
func (c *Cache) supersede(e *entry) {
	if e.cancel != nil && e.state != 0 {
		e.cancel()
	}
	e.cancel = nil
	e.gen = c.nextGen()
}

// entry returns the entry of key, creating an empty one. Must be called with
// c.mu held.
func (c *Cache) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{gen: c.nextGen()}
		c.entries[key] = e
	}
	return e
}

// Write stores v as the Fresh value of key.
func (c *Cache) Write(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := c.entry(key)
	c.supersede(e)
	e.value = v
	e.version = c.nextGen()
	e.state = StateFresh
	e.updatedAt = now
	e.usedAt = now
}

// Pin stores an optimistic value for key. The entry is served without network
// reads until Release, Write, Restore or Evict.
func (c *Cache) Pin(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := c.entry(key)
	c.supersede(e)
	e.value = v
	e.version = c.nextGen()
	e.state = StateOptimisticPending
	e.updatedAt = now
	e.usedAt = now
}

// Update replaces the value of a cached key with fn(value) when fn reports a
// change. State and timestamps are kept and a fetch in flight is not dropped.
// It reports whether the value was replaced.
func (c *Cache) Update(key string, fn func(v any) (any, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state == 0 {
		return false
	}
	v, changed := fn(e.value)
	if !changed {
		return false
	}
	e.value = v
	e.version = c.nextGen()
	return true
}

// Release turns an OptimisticPending entry into a Stale one so the next Fetch
// reads through. Other states are left alone.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.state == StateOptimisticPending {
		e.state = StateStale
	}
}

// Invalidate marks a cached entry Stale and drops any refetch already in
// flight for it. OptimisticPending entries and first loads are not affected.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state == 0 || e.state == StateOptimisticPending {
		return
	}
	c.supersede(e)
	if e.state == StateFresh {
		e.state = StateStale
	}
}

// Cancel drops the in-flight fetch of key, keeping the cached value and state.
// Callers waiting on a first load still receive its result, uncached.
func (c *Cache) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.supersede(e)
	}
}

// Evict removes key and cancels its in-flight fetch.
func (c *Cache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.supersede(e)
		delete(c.entries, key)
	}
}

// Len returns the number of entries, including ones still being fetched.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
