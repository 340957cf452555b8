package querycache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run collects unused entries every interval until ctx is done. It returns
// immediately when collection is disabled.
func (c *Cache) Run(ctx context.Context, interval time.Duration) error {
	if c.gcTime <= 0 || interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := c.collect(c.now()); n > 0 {
				c.lg.Debug("Collected cache entries", zap.Int("count", n))
			}
		}
	}
}

// collect evicts entries unused for gcTime. Pinned entries and entries with a
// fetch in flight are kept.
func (c *Cache) collect(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for key, e := range c.entries {
		if e.state == StateOptimisticPending || e.cancel != nil {
			continue
		}
		if now.Sub(e.usedAt) >= c.gcTime {
			c.supersede(e)
			delete(c.entries, key)
			n++
		}
	}
	return n
}
