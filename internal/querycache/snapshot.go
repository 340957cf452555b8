package querycache

import "time"

// Snapshot is a copy of one entry taken before an optimistic change.
type Snapshot struct {
	Key       string
	Value     any
	State     State
	UpdatedAt time.Time
	// Present is false when the key had no value.
	Present bool
}

// Snapshot captures the current value and state of key.
func (c *Cache) Snapshot(key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{Key: key}
	if e, ok := c.entries[key]; ok && e.state != 0 {
		s.Value = e.value
		s.State = e.state
		s.UpdatedAt = e.updatedAt
		s.Present = true
	}
	return s
}

// Version identifies the current value of key. It changes on every Write,
// Pin, Restore, Update and completed fetch.
func (c *Cache) Version(key string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state == 0 {
		return 0, false
	}
	return e.version, true
}

// RestoreIf restores s only while key still holds the value identified by
// version. It reports whether the snapshot was restored.
func (c *Cache) RestoreIf(s Snapshot, version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[s.Key]
	if !ok || e.state == 0 || e.version != version {
		return false
	}
	c.restore(s)
	return true
}

// Restore puts a snapshot back verbatim. A snapshot of an absent key removes
// the key. Any fetch in flight for the key is dropped.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.restore(s)
}

// restore must be called with c.mu held.
func (c *Cache) restore(s Snapshot) {
	e, ok := c.entries[s.Key]
	if !s.Present {
		if ok {
			c.supersede(e)
			delete(c.entries, s.Key)
		}
		return
	}
	if !ok {
		e = c.entry(s.Key)
	}
	c.supersede(e)
	e.value = s.Value
	e.version = c.nextGen()
	e.state = s.State
	e.updatedAt = s.UpdatedAt
	e.usedAt = c.now()
}
