// Package cache keeps encoded frames (PNG, SVG) in memory so that repeated
// requests for an unchanged view are served without re-rendering.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache is a size-bounded in-memory store for rendered artifacts.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	size     int64
	maxSize  int64
	maxAge   time.Duration
	strategy EvictionStrategy
	stats    *Stats
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// Entry represents a single cached artifact
type Entry struct {
	Key         string
	Hash        string
	Data        []byte
	ContentType string
	Size        int64
	Created     time.Time
	LastAccess  time.Time
	AccessCount int
}

// Stats tracks cache performance metrics
type Stats struct {
	mu         sync.RWMutex
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	TotalSize  int64 `json:"total_size"`
	EntryCount int   `json:"entry_count"`
}

// EvictionStrategy defines how cache entries are removed
type EvictionStrategy int

const (
	// LRU removes least recently used entries
	LRU EvictionStrategy = iota
	// LFU removes least frequently used entries
	LFU
	// FIFO removes oldest entries first
	FIFO
)

func (s EvictionStrategy) String() string {
	switch s {
	case LRU:
		return "lru"
	case LFU:
		return "lfu"
	case FIFO:
		return "fifo"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy parses "lru", "lfu" or "fifo".
func ParseStrategy(s string) (EvictionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lru":
		return LRU, nil
	case "lfu":
		return LFU, nil
	case "fifo":
		return FIFO, nil
	}
	return LRU, fmt.Errorf("unknown eviction strategy %q", s)
}

// Config holds cache configuration
type Config struct {
	MaxSize  int64            // Maximum cache size in bytes (default: 64 MB)
	MaxAge   time.Duration    // Maximum entry age; 0 disables expiry
	Strategy EvictionStrategy // Eviction strategy (default: LRU)
	// CleanupInterval is how often expired entries are swept; 0 disables
	// the background sweep.
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxSize:         64 << 20,
		MaxAge:          10 * time.Minute,
		Strategy:        LRU,
		CleanupInterval: time.Minute,
	}
}

// New creates a new cache instance. Close stops its cleanup goroutine.
func New(config Config) *Cache {
	c := &Cache{
		entries:  make(map[string]*Entry),
		maxSize:  config.MaxSize,
		maxAge:   config.MaxAge,
		strategy: config.Strategy,
		stats:    &Stats{},
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.cleanup(config.CleanupInterval)
	}
	return c
}

// Get retrieves a cached artifact
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	entry, exists := c.entries[key]
	if exists && c.isExpired(entry) {
		c.removeLocked(key)
		exists = false
	}
	if !exists {
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}
	entry.LastAccess = c.now()
	entry.AccessCount++
	out := *entry
	c.mu.Unlock()

	c.recordHit()
	return &out, true
}

// Put stores an artifact in the cache
func (c *Cache) Put(key, contentType string, data []byte) error {
	hash := c.hash(data)
	size := int64(len(data))
	if c.maxSize > 0 && size > c.maxSize {
		return fmt.Errorf("entry %s is %d bytes, cache limit is %d", key, size, c.maxSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		if existing.Hash == hash {
			return nil
		}
		c.removeLocked(key)
	}
	c.ensureSpaceLocked(size)

	now := c.now()
	c.entries[key] = &Entry{
		Key:         key,
		Hash:        hash,
		Data:        data,
		ContentType: contentType,
		Size:        size,
		Created:     now,
		LastAccess:  now,
	}
	c.size += size
	c.syncStatsLocked()
	return nil
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(key)
			count++
		}
	}
	return count
}

// Clear removes all cached entries and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.size = 0
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Hits, c.stats.Misses, c.stats.Evictions = 0, 0, 0
	c.stats.TotalSize, c.stats.EntryCount = 0, 0
	c.stats.mu.Unlock()
}

// GetStats returns cache statistics
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return Stats{
		Hits:       c.stats.Hits,
		Misses:     c.stats.Misses,
		Evictions:  c.stats.Evictions,
		TotalSize:  c.stats.TotalSize,
		EntryCount: c.stats.EntryCount,
	}
}

// Key generates a cache key from inputs
func Key(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}

func (c *Cache) isExpired(entry *Entry) bool {
	// If maxAge is 0 or negative, entries never expire
	if c.maxAge <= 0 {
		return false
	}
	return c.now().Sub(entry.Created) > c.maxAge
}

func (c *Cache) removeLocked(key string) {
	entry, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	c.size -= entry.Size
	c.syncStatsLocked()
}

func (c *Cache) syncStatsLocked() {
	c.stats.mu.Lock()
	c.stats.TotalSize = c.size
	c.stats.EntryCount = len(c.entries)
	c.stats.mu.Unlock()
}

func (c *Cache) ensureSpaceLocked(needed int64) {
	// If maxSize is 0 or negative, no limit
	if c.maxSize <= 0 {
		return
	}

	for c.size+needed > c.maxSize && len(c.entries) > 0 {
		var victim *Entry
		for _, entry := range c.entries {
			if victim == nil || c.evictsBefore(entry, victim) {
				victim = entry
			}
		}
		c.removeLocked(victim.Key)
		c.stats.mu.Lock()
		c.stats.Evictions++
		c.stats.mu.Unlock()
	}
}

// evictsBefore reports whether a should be evicted before b. Ties fall
// back to the key so eviction order is deterministic.
func (c *Cache) evictsBefore(a, b *Entry) bool {
	switch c.strategy {
	case LFU:
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
	case FIFO:
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
	default:
		if !a.LastAccess.Equal(b.LastAccess) {
			return a.LastAccess.Before(b.LastAccess)
		}
	}
	return a.Key < b.Key
}

func (c *Cache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stopCh:
			return
		}
	}
}

// Sweep removes expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for key, entry := range c.entries {
		if c.isExpired(entry) {
			c.removeLocked(key)
			count++
		}
	}
	return count
}

func (c *Cache) hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
