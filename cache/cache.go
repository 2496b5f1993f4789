package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/finrate/models"
)

// Snapshot is a cached company snapshot and the page it came from.
type Snapshot struct {
	SourceURL string
	Data      models.CompanySnapshot
}

// entry holds a cached snapshot with its creation timestamp.
type entry struct {
	snap      Snapshot
	createdAt time.Time
}

// Cache is a simple in-memory cache for scraped snapshots.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// New creates a new Cache with the given maximum number of entries.
// A background goroutine runs every 5 minutes to evict entries older than
// 1 hour until Close is called.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.cleanupLoop()
	return c
}

// Key hashes a request's cache identity (see models.SnapshotRequest.CacheKey).
func Key(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a cached snapshot if it exists and is younger than maxAge.
// maxAge is in milliseconds. If maxAge <= 0, no cache lookup is performed.
// The returned snapshot is a copy.
func (c *Cache) Get(key string, maxAgeMs int) (Snapshot, bool) {
	if maxAgeMs <= 0 {
		return Snapshot{}, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return Snapshot{}, false
	}

	maxAge := time.Duration(maxAgeMs) * time.Millisecond
	if c.now().Sub(e.createdAt) > maxAge {
		return Snapshot{}, false
	}

	return Snapshot{SourceURL: e.snap.SourceURL, Data: copySnapshot(e.snap.Data)}, true
}

// Set stores a snapshot. If the cache is at capacity, a random entry is
// evicted to make room.
func (c *Cache) Set(key string, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random, so this drops an arbitrary entry.
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		snap:      Snapshot{SourceURL: snap.SourceURL, Data: copySnapshot(snap.Data)},
		createdAt: c.now(),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictOlderThan(time.Hour)
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) evictOlderThan(age time.Duration) {
	cutoff := c.now().Add(-age)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

func copySnapshot(s models.CompanySnapshot) models.CompanySnapshot {
	if s == nil {
		return nil
	}
	out := make(models.CompanySnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
