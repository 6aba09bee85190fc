package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is an in-process Cache backed by a map with TTL expiry and
// LRU eviction once MaxEntries is reached. A background janitor sweeps
// expired entries on a fixed interval.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*memEntry
	defaultTTL time.Duration
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64

	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
	lastUsed  time.Time
	size      int64
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryCache creates a memory cache and starts its janitor goroutine.
// Close must be called to stop the janitor.
func NewMemoryCache(opts *Options) *MemoryCache {
	if opts == nil {
		opts = DefaultOptions()
	}

	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 100000
	}

	sweep := opts.CleanupInterval
	if sweep <= 0 {
		sweep = 1 * time.Minute
	}

	c := &MemoryCache{
		entries:    make(map[string]*memEntry),
		defaultTTL: opts.DefaultTTL,
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}

	c.wg.Add(1)
	go c.janitor(sweep)

	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	now := time.Now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.expired(now) {
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, ErrKeyNotFound
	}
	e.lastUsed = now
	out := make([]byte, len(e.value))
	copy(out, e.value)
	c.mu.Unlock()

	c.hits.Add(1)
	return out, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := time.Now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[key] = &memEntry{
		value:     stored,
		expiresAt: expiresAt,
		lastUsed:  now,
		size:      int64(len(stored)),
	}

	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	return nil
}

func (c *MemoryCache) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	if c.closed.Load() {
		return 0, ErrCacheClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var count int64
	for key := range c.entries {
		if matchPattern(pattern, key) {
			delete(c.entries, key)
			count++
		}
	}

	return count, nil
}

func (c *MemoryCache) Stats(_ context.Context) (*Stats, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &Stats{
		TotalKeys:    int64(len(c.entries)),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		KeysByPrefix: make(map[string]int64),
		Backend:      "memory",
	}

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	for key, e := range c.entries {
		if !e.expired(now) {
			stats.MemoryBytes += e.size
			stats.KeysByPrefix[keyPrefix(key)]++
		}
	}

	return stats, nil
}

func (c *MemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)
	c.wg.Wait()

	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()

	return nil
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweepExpired()
		}
	}
}

func (c *MemoryCache) sweepExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}

// evictOldest removes the least recently used entry. Caller holds mu.
func (c *MemoryCache) evictOldest() {
	var victim string
	var oldest time.Time

	for key, e := range c.entries {
		if victim == "" || e.lastUsed.Before(oldest) {
			victim = key
			oldest = e.lastUsed
		}
	}

	if victim != "" {
		delete(c.entries, victim)
	}
}

// matchPattern matches a key against a glob with at most one "*":
// "*", "prefix*", "*suffix" or "prefix*suffix". Without a star the
// match is exact.
func matchPattern(pattern, key string) bool {
	if pattern == "*" {
		return true
	}

	star := strings.Index(pattern, "*")
	if star == -1 {
		return pattern == key
	}

	prefix := pattern[:star]
	suffix := pattern[star+1:]

	if len(key) < len(prefix)+len(suffix) {
		return false
	}

	return strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix)
}

// keyPrefix groups keys by the segment before the first colon, so stats
// can break down plan and network entries separately.
func keyPrefix(key string) string {
	if idx := strings.Index(key, ":"); idx > 0 {
		return key[:idx]
	}
	return "other"
}
