package webstory

import (
	"strings"
	"sync"
	"time"
)

// Cache keys. Invalidate treats each as a prefix for keys below it, so
// invalidating "stories" drops every filtered list.
const (
	keyStories    = "stories"
	keyStory      = "story"
	keyCategories = "categories"
	keyDashboard  = "dashboard"
)

// QueryCache is an in-memory keyed cache of query results with a TTL per
// entry. Mutations invalidate the affected keys so the next read reloads.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// NewQueryCache creates an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *QueryCache) get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *QueryCache) set(key string, v any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: v, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate drops every entry whose key equals one of prefixes or sits
// below it (prefix + ":").
func (c *QueryCache) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+":") {
				delete(c.entries, key)
				break
			}
		}
	}
}

// Len returns the number of live entries.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}

// cached returns the value under key, loading and storing it on a miss.
// Failed loads are not cached.
func cached[T any](c *QueryCache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if v, ok := c.get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.set(key, v, ttl)
	return v, nil
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
