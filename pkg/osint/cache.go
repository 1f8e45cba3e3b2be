package osint

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// cacheEntry is the persisted-cache layout: {payload, expires_at}. Kept
// in-memory here; a file-backed cache would serialize this struct verbatim
// per key under the cache directory.
type cacheEntry struct {
	payload   model.VerificationResult
	expiresAt time.Time
}

// Cache is a shared, thread-safe OSINT response cache keyed by
// sha256(source_name || query). It is safe to share across audits within a
// single process; writes are atomic per key.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Key computes the cache key for a source+query pair.
func Key(source, query string) string {
	sum := sha256.Sum256([]byte(source + query))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached verification for key if present and unexpired.
func (c *Cache) Get(key string, now time.Time) (model.VerificationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || now.After(entry.expiresAt) {
		return model.VerificationResult{}, false
	}
	return entry.payload, true
}

// Put stores a verification under key with the given TTL.
func (c *Cache) Put(key string, v model.VerificationResult, ttl time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{payload: v, expiresAt: now.Add(ttl)}
}
