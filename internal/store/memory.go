// Package store provides persistence for parse results: a TTL cache keyed by
// request fingerprint and an append-mostly audit log, with in-memory and
// SQLite backings.
package store

import (
	"context"
	"sync"
	"time"

	"hishab/internal/models"
)

type cacheEntry struct {
	result    models.ParseResult
	expiresAt time.Time
}

// MemoryCache is a TTL cache for parse results. Entries expire after the
// configured TTL; a background sweeper reclaims them so the map does not grow
// unbounded between hits.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	stopCh  chan struct{}
	stopped sync.Once
}

// NewMemoryCache creates a cache with the given TTL and starts its sweeper.
// Call Close when done to stop the goroutine.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the cached result for the fingerprint if present and fresh.
func (c *MemoryCache) Get(_ context.Context, fingerprint string) (models.ParseResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[fingerprint]
	if !ok || time.Now().After(entry.expiresAt) {
		return models.ParseResult{}, false, nil
	}
	return entry.result, true, nil
}

// Put stores a result under the fingerprint for the cache TTL.
func (c *MemoryCache) Put(_ context.Context, fingerprint string, result models.ParseResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Close stops the sweeper goroutine. Safe to call more than once.
func (c *MemoryCache) Close() error {
	c.stopped.Do(func() { close(c.stopCh) })
	return nil
}

func (c *MemoryCache) sweep() {
	interval := c.ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *MemoryCache) evictExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}
