// Package upstream implements the product and category repositories on top of
// the remote catalog REST service. Failures are returned to the caller
// unchanged; nothing is retried here.
package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/catalog-admin/internal/apierror"
	"github.com/xenking/catalog-admin/internal/domain/category"
	"github.com/xenking/catalog-admin/internal/domain/product"
	"github.com/xenking/catalog-admin/pkg/httpmiddleware"
)

// maxErrorBody bounds how much of a failed response body is kept for diagnostics.
const maxErrorBody = 4 << 10

// Compile-time checks ensuring Client satisfies both domain repositories.
var (
	_ product.Repository  = (*Client)(nil)
	_ category.Repository = (*Categories)(nil)
)

// Client talks to the catalog service over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a Client for the service rooted at baseURL. When httpClient is
// nil, http.DefaultClient is used.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: u, http: httpClient}, nil
}

// URL returns the absolute URL of a path relative to the base URL.
func (c *Client) URL(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

// Categories returns the category repository view of the client.
func (c *Client) Categories() *Categories {
	return &Categories{c: c}
}

// do sends one request. body, when set, writes the JSON request body; decode,
// when set, reads the 2xx response body.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	body func(e *jx.Encoder),
	decode func(d *jx.Decoder) error,
) error {
	u := c.URL(path)

	var reqBody io.Reader
	if body != nil {
		var e jx.Encoder
		body(&e)
		reqBody = bytes.NewReader(e.Bytes())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := httpmiddleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(httpmiddleware.RequestIDHeader, id)
	}

	lg := zctx.From(ctx)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		lg.Debug("Upstream request failed",
			zap.String("method", method),
			zap.String("url", u),
			zap.Error(err),
		)
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	lg.Debug("Upstream request",
		zap.String("method", method),
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apierror.StatusError{
			Status: resp.StatusCode,
			Method: method,
			URL:    u,
			Body:   raw,
		}
	}

	if decode == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s %s: read body", method, path)
	}
	if err := decode(jx.DecodeBytes(raw)); err != nil {
		return &apierror.StatusError{
			Status: resp.StatusCode,
			Method: method,
			URL:    u,
			Body:   truncate(raw),
			Err:    err,
		}
	}
	return nil
}

func truncate(b []byte) []byte {
	if len(b) > maxErrorBody {
		return b[:maxErrorBody]
	}
	return b
}
