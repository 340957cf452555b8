package health

import (
	"context"
	"io"
	"net/http"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// UpstreamCheck fails when GET url does not answer or answers with a server
// error. Client errors still prove the service is reachable.
func UpstreamCheck(client *http.Client, url string) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		resp, err := client.Do(req)
		if err != nil {
			return errors.Wrap(err, "catalog service unreachable")
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		if resp.StatusCode >= http.StatusInternalServerError {
			return errors.Errorf("catalog service answered %d", resp.StatusCode)
		}
		return nil
	}
}
