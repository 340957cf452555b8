// Package health serves liveness and readiness probes for the admin gateway.
//
// Checks run in background goroutines. A check turns unhealthy after
// failureThreshold consecutive failures and healthy again after
// successThreshold consecutive successes, so a single slow answer from the
// catalog service does not flap readiness.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

const (
	failureThreshold = 3
	successThreshold = 1
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Probe selects which endpoint a check contributes to.
type Probe uint8

const (
	// Liveness checks decide whether the process should be restarted.
	Liveness Probe = iota
	// Readiness checks decide whether the gateway should receive traffic.
	Readiness
)

// check is one registered check. run is only called from the check's own
// goroutine; healthy and lastErr are read by the HTTP handlers.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.oks = 0
		c.fails++
		if c.fails >= failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	c.oks++
	if c.oks >= successThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) err() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Health holds the registered checks. The zero value is not usable; use New.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks map[Probe][]*check
	cancel context.CancelFunc
}

// New creates a Health that reports not ready until SetReady(true).
func New() *Health {
	return &Health{checks: make(map[Probe][]*check)}
}

// Add registers a check. Checks start healthy.
func (h *Health) Add(p Probe, name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)
	h.checks[p] = append(h.checks[p], c)
}

func (h *Health) list(p Probe) []*check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*check(nil), h.checks[p]...)
}

// Start runs every check now and then every interval until Stop or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	for _, c := range append(h.list(Liveness), h.list(Readiness)...) {
		go loop(ctx, c, interval)
	}
}

func loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop cancels the check goroutines. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady sets the manual readiness flag, cleared during graceful shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the flag is set and every readiness check passes.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(failures(h.list(Readiness))) == 0
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	write(w, failures(h.list(Liveness)))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.list(Readiness))
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	write(w, failed)
}

// failures maps each unhealthy check to its last error.
func failures(checks []*check) map[string]string {
	out := make(map[string]string)
	for _, c := range checks {
		if c.healthy.Load() {
			continue
		}
		if err := c.err(); err != nil {
			out[c.name] = err.Error()
		} else {
			out[c.name] = "check is unhealthy"
		}
	}
	return out
}

// write answers 200 {"status":"ok"} or 503 {"status":"unhealthy","checks":{...}}.
func write(w http.ResponseWriter, failed map[string]string) {
	status := http.StatusOK
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		if len(failed) == 0 {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			return
		}
		status = http.StatusServiceUnavailable
		e.Field("status", func(e *jx.Encoder) { e.Str("unhealthy") })

		names := make([]string, 0, len(failed))
		for name := range failed {
			names = append(names, name)
		}
		sort.Strings(names)
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failed[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
