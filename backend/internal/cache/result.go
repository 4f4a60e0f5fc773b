package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
)

// ResultCache holds finished analyses. Results are deterministic per
// (kind, input) so exact-match lookup is sufficient.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// CacheEntry represents a cached result
type CacheEntry struct {
	Key       string
	Result    analyzer.Result
	CreatedAt time.Time
	Hits      int
}

// NewResultCache creates a new cache with given max size and TTL
func NewResultCache(maxSize int, ttl time.Duration) *ResultCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &ResultCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// HashKey generates a deterministic key for an input of the given kind
func HashKey(kind analyzer.Kind, input string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached result if available and not expired
func (c *ResultCache) Get(kind analyzer.Kind, input string) (analyzer.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := HashKey(kind, input)
	entry, exists := c.entries[key]
	if !exists {
		return analyzer.Result{}, false
	}

	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		delete(c.entries, key)
		return analyzer.Result{}, false
	}

	entry.Hits++
	return entry.Result, true
}

// Set stores a result in the cache
func (c *ResultCache) Set(kind analyzer.Kind, input string, res analyzer.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := HashKey(kind, input)

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &CacheEntry{
		Key:       key,
		Result:    res,
		CreatedAt: c.now(),
	}
}

// evictOldest removes the oldest entry
func (c *ResultCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreatedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of cached entries
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *ResultCache) Stats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalHits := 0
	for _, entry := range c.entries {
		totalHits += entry.Hits
	}

	return map[string]interface{}{
		"size":       len(c.entries),
		"max_size":   c.maxSize,
		"total_hits": totalHits,
		"ttl_sec":    c.ttl.Seconds(),
	}
}
