package appctx

import (
	"sync"
	"time"

	"github.com/jsamuelsen/app-context/internal/domain"
)

type cacheEntry struct {
	fragment domain.Mapping
	storedAt time.Time
}

// providerCache memoizes provider fragments by provider name.
type providerCache struct {
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newProviderCache(ttl time.Duration, now func() time.Time) *providerCache {
	return &providerCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// get returns a live entry. Expired entries are dropped on read.
func (c *providerCache) get(name string) (domain.Mapping, bool) {
	entry, ok := c.entries[name]
	if !ok {
		return nil, false
	}

	if c.ttl > 0 && c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, name)
		return nil, false
	}

	return entry.fragment, true
}

func (c *providerCache) put(name string, fragment domain.Mapping) {
	c.entries[name] = cacheEntry{fragment: fragment.Clone(), storedAt: c.now()}
}

func (c *providerCache) evict(name string) {
	delete(c.entries, name)
}

func (c *providerCache) clear() {
	clear(c.entries)
}

func (c *providerCache) len() int {
	return len(c.entries)
}

// fragmentCache is the subset of cache operations the engine needs.
type fragmentCache interface {
	get(name string) (domain.Mapping, bool)
	put(name string, fragment domain.Mapping)
	evict(name string)
	clear()
}

// sharedCache guards a providerCache for use by many engines at once. A
// Factory gives one to every engine it creates, and engines route
// process-scoped providers through it.
type sharedCache struct {
	mu    sync.Mutex
	cache *providerCache
}

func newSharedCache(ttl time.Duration, now func() time.Time) *sharedCache {
	return &sharedCache{cache: newProviderCache(ttl, now)}
}

// get returns the stored fragment itself. Stored fragments are never
// mutated in place, and the engine merges a copy.
func (c *sharedCache) get(name string) (domain.Mapping, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.get(name)
}

func (c *sharedCache) put(name string, fragment domain.Mapping) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.put(name, fragment)
}

func (c *sharedCache) evict(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.evict(name)
}

func (c *sharedCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.clear()
}

func (c *sharedCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.len()
}
