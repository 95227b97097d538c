// Package cache memoizes chat responses behind a bounded LRU with per-entry
// TTL. Entries past their TTL are treated as misses and removed lazily on
// lookup.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

const (
	// DefaultMaxSize bounds the cache when configuration leaves it unset.
	DefaultMaxSize = 256
	// DefaultTTL applies to entries stored without an explicit TTL.
	DefaultTTL = 5 * time.Minute
)

// Config controls the cache. A disabled cache behaves as always-miss.
type Config struct {
	Enabled bool
	MaxSize int
	TTL     time.Duration
}

type entry struct {
	resp      *llm.Response
	expiresAt time.Time
}

// Cache is safe for concurrent use. The underlying LRU serializes structure
// mutation; overlapping requests on the same fingerprint may race to Put,
// which is acceptable since either value is a valid response.
type Cache struct {
	enabled bool
	ttl     time.Duration
	entries *lru.Cache[string, entry]
	now     func() time.Time
}

// New builds a cache from configuration.
func New(cfg Config) (*Cache, error) {
	size := cfg.MaxSize
	if size <= 0 {
		size = DefaultMaxSize
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		enabled: cfg.Enabled,
		ttl:     ttl,
		entries: entries,
		now:     time.Now,
	}, nil
}

// Enabled reports whether lookups can ever hit.
func (c *Cache) Enabled() bool { return c.enabled }

// Get returns a copy of the cached response for fingerprint, marked as
// cached. Expired entries are removed and reported as misses.
func (c *Cache) Get(fingerprint string) (*llm.Response, bool) {
	if !c.enabled {
		return nil, false
	}
	ent, ok := c.entries.Get(fingerprint)
	if !ok {
		return nil, false
	}
	if c.now().After(ent.expiresAt) {
		c.entries.Remove(fingerprint)
		return nil, false
	}
	resp := ent.resp.Clone()
	resp.Cached = true
	return resp, true
}

// Put stores a copy of resp under fingerprint for ttl. A non-positive ttl
// falls back to the configured default. Insertion beyond capacity evicts the
// least-recently-used entry regardless of its remaining TTL.
func (c *Cache) Put(fingerprint string, resp *llm.Response, ttl time.Duration) {
	if !c.enabled || resp == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	stored := resp.Clone()
	stored.Cached = false
	c.entries.Add(fingerprint, entry{
		resp:      stored,
		expiresAt: c.now().Add(ttl),
	})
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Len reports the number of resident entries, expired ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}
