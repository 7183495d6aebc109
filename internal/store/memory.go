package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-client/internal/weather"
)

// DefaultTTL is how long a cached snapshot stays fresh.
const DefaultTTL = 10 * time.Minute

type cacheEntry struct {
	snapshot  weather.WeatherSnapshot
	createdAt time.Time
}

// MemoryCache is a concurrency-safe in-memory snapshot cache.
// Expired entries are ignored on read and purged lazily on write.
type MemoryCache struct {
	mu sync.RWMutex

	// key: location key
	data map[string]cacheEntry

	ttl time.Duration
	now func() time.Time
}

// CacheOption configures a MemoryCache.
type CacheOption func(*MemoryCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates a MemoryCache. A ttl <= 0 falls back to DefaultTTL.
func NewMemoryCache(ttl time.Duration, opts ...CacheOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the snapshot for key if present and still fresh.
func (c *MemoryCache) Get(key string) (weather.WeatherSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || !c.fresh(entry, c.now()) {
		return weather.WeatherSnapshot{}, false
	}
	return entry.snapshot, true
}

// Set stores snapshot under key, replacing any previous entry, and drops
// other entries that have expired.
func (c *MemoryCache) Set(key string, snapshot weather.WeatherSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.purgeLocked(now)
	c.data[key] = cacheEntry{snapshot: snapshot, createdAt: now}
}

// Purge removes expired entries and returns how many were dropped.
func (c *MemoryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(c.now())
}

// Clear removes every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
}

// Len returns the number of stored entries, fresh or not yet purged.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache) fresh(e cacheEntry, now time.Time) bool {
	return now.Sub(e.createdAt) < c.ttl
}

func (c *MemoryCache) purgeLocked(now time.Time) int {
	n := 0
	for k, e := range c.data {
		if !c.fresh(e, now) {
			delete(c.data, k)
			n++
		}
	}
	return n
}
