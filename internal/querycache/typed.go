package querycache

import (
	"context"

	"github.com/go-faster/errors"
)

// Get is a typed Fetch.
func Get[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("query %q: cached %T is not %T", key, v, zero)
	}
	return t, nil
}

// Peek is a typed Read.
func Peek[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Read(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
