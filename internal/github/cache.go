package github

import (
	"sync"
	"time"
)

// responseCache memoizes read responses for the lifetime of a run so the
// resolver and manager do not repeat identical enumerations. Entries expire
// after a TTL and the whole cache is dropped with the client; nothing is
// persisted across runs.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry

	// now is swappable for tests.
	now func() time.Time
}

type cacheEntry struct {
	value   any
	expires time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: map[string]cacheEntry{},
		now:     time.Now,
	}
}

func (c *responseCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *responseCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

func (c *responseCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// cached fetches through the cache with a typed loader.
func cached[T any](c *responseCache, key string, load func() (T, error)) (T, error) {
	if v, ok := c.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.set(key, v)
	return v, nil
}
