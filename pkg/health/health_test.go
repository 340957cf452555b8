package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(endpoint http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func runN(c *check, n int) {
	for range n {
		c.run(context.Background())
	}
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.Add(Liveness, "goroutines", time.Second, passing())

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.Add(Liveness, "goroutines", time.Second, failing("too many"))
	runN(h.list(Liveness)[0], failureThreshold)

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"goroutines":"too many"}}`, w.Body.String())
}

func TestLiveEndpoint_FailureBelowThreshold(t *testing.T) {
	h := New()
	h.Add(Liveness, "flaky", time.Second, failing("temporary"))
	runN(h.list(Liveness)[0], failureThreshold-1)

	assert.Equal(t, http.StatusOK, serve(h.LiveEndpoint).Code)
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.Add(Readiness, "catalog", time.Second, passing())

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready"}}`, w.Body.String())

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(h.ReadyEndpoint).Code)

	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h.ReadyEndpoint).Code)
}

func TestReadyEndpoint_OneFailing(t *testing.T) {
	h := New()
	h.Add(Readiness, "categories", time.Second, passing())
	h.Add(Readiness, "catalog", time.Second, failing("connection refused"))
	h.SetReady(true)
	runN(h.list(Readiness)[1], failureThreshold)

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"catalog":"connection refused"}}`, w.Body.String())
	assert.False(t, h.IsReady())
}

func TestCheckRecovery(t *testing.T) {
	down := true
	h := New()
	h.Add(Liveness, "flaky", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	c := h.list(Liveness)[0]

	runN(c, failureThreshold)
	assert.False(t, c.healthy.Load())

	down = false
	runN(c, successThreshold)
	assert.True(t, c.healthy.Load())
	assert.NoError(t, c.err())
}

func TestStartStop(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	h := New()
	h.Add(Liveness, "count", time.Second, func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		runs++
		return nil
	})

	h.Start(context.Background(), 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 2
	}, time.Second, time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.Add(Liveness, "live", time.Second, failing("err"))
	h.Add(Readiness, "ready", time.Second, passing())
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				serve(h.LiveEndpoint)
				serve(h.ReadyEndpoint)
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	assert.ErrorContains(t, err, "exceeds threshold")
}

func TestUpstreamCheck(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/categories", r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	check := UpstreamCheck(srv.Client(), srv.URL+"/api/v1/categories")
	assert.NoError(t, check(context.Background()))

	status.Store(http.StatusNotFound)
	assert.NoError(t, check(context.Background()))

	status.Store(http.StatusBadGateway)
	assert.ErrorContains(t, check(context.Background()), "answered 502")

	srv.Close()
	assert.ErrorContains(t, check(context.Background()), "unreachable")
}
