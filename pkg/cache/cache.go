// Package cache stores serialized plan results keyed by canonical network
// hashes, with in-memory and Redis backends. PlanCache is the typed facade
// the planner talks to; Cache is the byte-level contract underneath it.
package cache

import (
	"context"
	"errors"
	"time"

	"transit/pkg/config"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	// ErrKeyNotFound is returned when a requested key does not exist.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCacheClosed is returned after Close.
	ErrCacheClosed = errors.New("cache is closed")
)

// Cache is the byte-level store PlanCache builds on. The surface is
// deliberately narrow: point reads and writes for plan entries,
// pattern deletes for per-network invalidation, Stats for hit-rate
// introspection.
type Cache interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. ttl <= 0 means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeleteByPattern removes keys matching a glob with at most one "*"
	// and reports how many were deleted.
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	// Stats reports key counts and hit rates.
	Stats(ctx context.Context) (*Stats, error)
	// Close releases backend resources. Further calls return ErrCacheClosed.
	Close() error
}

// Stats describes a cache's current state.
type Stats struct {
	TotalKeys    int64
	Hits         int64
	Misses       int64
	HitRate      float64
	MemoryBytes  int64
	KeysByPrefix map[string]int64 // keys grouped by segment before the first colon
	Backend      string
}

// Options configures a Cache instance.
type Options struct {
	Backend    string        // BackendMemory or BackendRedis
	DefaultTTL time.Duration // applied when Set receives ttl <= 0

	// memory backend
	MaxEntries      int
	CleanupInterval time.Duration

	// redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultOptions returns memory-backend defaults.
func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      5 * time.Minute,
		MaxEntries:      100000,
		CleanupInterval: 1 * time.Minute,
		RedisAddr:       "localhost:6379",
		RedisDB:         0,
		RedisPoolSize:   10,
	}
}

// FromConfig maps the service cache configuration onto Options.
func FromConfig(cfg *config.CacheConfig) *Options {
	return &Options{
		Backend:       cfg.Driver,
		DefaultTTL:    cfg.DefaultTTL,
		MaxEntries:    cfg.MaxEntries,
		RedisAddr:     cfg.Address(),
		RedisPassword: cfg.Password,
		RedisDB:       cfg.DB,
		RedisPoolSize: 10,
	}
}

// New creates a cache for the configured backend. Unknown backends fall
// back to memory so a typo in config cannot take caching down.
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(opts)
	case BackendMemory, "":
		return NewMemoryCache(opts), nil
	default:
		return NewMemoryCache(opts), nil
	}
}

// MustNew is New for wiring paths where a cache failure is fatal.
func MustNew(opts *Options) Cache {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}
