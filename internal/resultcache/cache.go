// Package resultcache holds a bounded in-process TTL cache for search
// responses, with a stale-read escape hatch for store timeouts.
package resultcache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
	"github.com/kailas-cloud/docpipe/internal/metrics"
)

// Cache defaults.
const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 2 * time.Minute
	DefaultMaxEntries    = 1000

	// DefaultMaxResultCount bounds the size of a cacheable result set.
	DefaultMaxResultCount = 100

	minCacheableQueryLen = 3
	maxCacheableQueryLen = 500
)

type entry struct {
	results   []result.Hybrid
	createdAt time.Time
}

// Cache is a mutex-guarded TTL cache keyed by query.CacheKey. Tenant
// isolation holds because the tenant is part of the filter signature.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	ttl        time.Duration
	sweepEvery time.Duration
	maxEntries int
	maxResults int

	now    func() time.Time
	stopCh chan struct{}
	doneCh chan struct{}
	logger *zap.Logger
}

// Config holds result cache settings. Zero fields take defaults.
type Config struct {
	TTL            time.Duration
	SweepInterval  time.Duration
	MaxEntries     int
	MaxResultCount int
	Logger         *zap.Logger
}

// New creates a result cache. Call Start to run the background sweep.
func New(cfg *Config) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		ttl:        cfg.TTL,
		sweepEvery: cfg.SweepInterval,
		maxEntries: cfg.MaxEntries,
		maxResults: cfg.MaxResultCount,
		now:        time.Now,
		logger:     cfg.Logger,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.sweepEvery <= 0 {
		c.sweepEvery = DefaultSweepInterval
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}
	if c.maxResults <= 0 {
		c.maxResults = DefaultMaxResultCount
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Get returns a live cached result set, or false on miss or expiry.
func (c *Cache) Get(key string) ([]result.Hybrid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.createdAt) > c.ttl {
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
	return copyResults(e.results), true
}

// GetStale returns a cached result set even past its TTL. Used as a fallback
// when the backing store times out. Evicted entries are gone regardless.
func (c *Cache) GetStale(key string) ([]result.Hybrid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	metrics.ResultCacheTotal.WithLabelValues("stale_hit").Inc()
	return copyResults(e.results), true
}

// Put stores a result set, subject to admission rules: oversized result sets
// and degenerate queries (too short or too long) are never cached.
func (c *Cache) Put(key, normalizedQuery string, results []result.Hybrid) {
	if len(results) > c.maxResults {
		return
	}
	if n := len(normalizedQuery); n < minCacheableQueryLen || n > maxCacheableQueryLen {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{results: copyResults(results), createdAt: c.now()}
	metrics.ResultCacheEntries.Set(float64(len(c.entries)))
}

// Invalidate drops every cached entry. Called after writes that change the
// indexed corpus.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	metrics.ResultCacheEntries.Set(0)
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Start launches the background sweep goroutine.
func (c *Cache) Start() {
	c.mu.Lock()
	if c.stopCh != nil {
		c.mu.Unlock()
		return
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	stop, done := c.stopCh, c.doneCh
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the background sweep and waits for it to exit.
func (c *Cache) Stop() {
	c.mu.Lock()
	stop, done := c.stopCh, c.doneCh
	c.stopCh, c.doneCh = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// sweep removes expired entries.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.createdAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.ResultCacheEvictionsTotal.WithLabelValues("expired").Add(float64(removed))
		metrics.ResultCacheEntries.Set(float64(len(c.entries)))
		c.logger.Debug("result cache sweep", zap.Int("removed", removed), zap.Int("remaining", len(c.entries)))
	}
}

// evictOldestLocked removes the entry with the oldest createdAt.
// Caller must hold mu.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		metrics.ResultCacheEvictionsTotal.WithLabelValues("capacity").Inc()
	}
}

func copyResults(in []result.Hybrid) []result.Hybrid {
	out := make([]result.Hybrid, len(in))
	copy(out, in)
	return out
}
