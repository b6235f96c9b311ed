package authz

import (
	"sync"
	"time"
)

// DefaultCacheTTL bounds resolution cost to one role lookup per user per
// five-minute window.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	grant      Grant
	insertedAt time.Time
}

// PermissionCache memoizes resolved grants per user. It is process-local
// and explicitly constructed; the TTL runs from insertion and expired
// entries are evicted lazily on the next read. Concurrent misses for the
// same user may both resolve and both write; recomputation is idempotent
// and the last write wins, so no coordination is attempted.
type PermissionCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[int64]cacheEntry
	now     func() time.Time
}

// NewPermissionCache constructs a cache. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewPermissionCache(ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PermissionCache{
		ttl:     ttl,
		entries: make(map[int64]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached grant for a user. An entry past its deadline is
// treated as absent and removed.
func (c *PermissionCache) Get(userID int64) (Grant, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return Grant{}, false
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		c.Invalidate(userID)
		return Grant{}, false
	}
	return entry.grant, true
}

// Put stores a freshly resolved grant.
func (c *PermissionCache) Put(userID int64, grant Grant) {
	c.mu.Lock()
	c.entries[userID] = cacheEntry{grant: grant, insertedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops a single user's entry. Every code path that mutates a
// user's role or a role's permission string must call this so privilege
// changes take effect before TTL expiry.
func (c *PermissionCache) Invalidate(userID int64) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// InvalidateAll clears the cache, used for role-wide permission edits.
func (c *PermissionCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[int64]cacheEntry)
	c.mu.Unlock()
}

// Len reports the number of live entries, expired or not.
func (c *PermissionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
