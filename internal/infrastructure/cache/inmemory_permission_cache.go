package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sultan/backend/internal/domain/identity"
)

const (
	defaultCleanupInterval = time.Minute
	// DefaultMaxEntries bounds the cache; the least recently used user is
	// evicted first.
	DefaultMaxEntries = 10000
)

type permissionEntry struct {
	grants    []identity.Permission
	expiresAt time.Time
}

// InMemoryPermissionCache keeps grants in a size-bounded LRU in process
// memory. Suitable for a single instance; peers will not see each other's
// invalidations.
type InMemoryPermissionCache struct {
	entries    *lru.Cache[int64, permissionEntry]
	maxEntries int

	// mu orders Set against Invalidate; generations outlive LRU eviction
	mu          sync.Mutex
	generations map[int64]uint64

	ttl time.Duration
	now func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryPermissionCache
type InMemoryOption func(*InMemoryPermissionCache)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) InMemoryOption {
	return func(c *InMemoryPermissionCache) {
		c.now = now
	}
}

// WithMaxEntries overrides DefaultMaxEntries
func WithMaxEntries(n int) InMemoryOption {
	return func(c *InMemoryPermissionCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// NewInMemoryPermissionCache creates the cache and starts its cleanup loop.
// Call Close to stop it.
func NewInMemoryPermissionCache(ttl time.Duration, opts ...InMemoryOption) *InMemoryPermissionCache {
	c := &InMemoryPermissionCache{
		maxEntries:  DefaultMaxEntries,
		generations: make(map[int64]uint64),
		ttl:         ttl,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	// only fails for a non-positive size, which WithMaxEntries rules out
	c.entries, _ = lru.New[int64, permissionEntry](c.maxEntries)

	c.wg.Add(1)
	go c.cleanupLoop(defaultCleanupInterval)
	return c
}

// Get returns a copy of the cached grants
func (c *InMemoryPermissionCache) Get(_ context.Context, userID int64) ([]identity.Permission, bool, error) {
	e, ok := c.entries.Get(userID)
	if !ok || !c.now().Before(e.expiresAt) {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return cloneGrants(e.grants), true, nil
}

func (c *InMemoryPermissionCache) Generation(_ context.Context, userID int64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID], nil
}

// Set stores a copy of grants for the configured TTL unless the user was
// invalidated after generation was read
func (c *InMemoryPermissionCache) Set(_ context.Context, userID int64, generation uint64, grants []identity.Permission) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[userID] != generation {
		return false, nil
	}
	c.entries.Add(userID, permissionEntry{
		grants:    cloneGrants(grants),
		expiresAt: c.now().Add(c.ttl),
	})
	return true, nil
}

// Invalidate drops the user's entry and advances the generation
func (c *InMemoryPermissionCache) Invalidate(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++
	c.entries.Remove(userID)
	return nil
}

// Stats returns the hit and miss counters
func (c *InMemoryPermissionCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of entries, expired ones included
func (c *InMemoryPermissionCache) Len() int {
	return c.entries.Len()
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *InMemoryPermissionCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryPermissionCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

// removeExpired drops expired entries. Peek leaves the recency order alone.
func (c *InMemoryPermissionCache) removeExpired() {
	now := c.now()
	for _, id := range c.entries.Keys() {
		if e, ok := c.entries.Peek(id); ok && !now.Before(e.expiresAt) {
			c.entries.Remove(id)
		}
	}
}

func cloneGrants(grants []identity.Permission) []identity.Permission {
	out := make([]identity.Permission, len(grants))
	for i, g := range grants {
		if g.BranchID != nil {
			b := *g.BranchID
			g.BranchID = &b
		}
		out[i] = g
	}
	return out
}

var _ identity.PermissionCache = (*InMemoryPermissionCache)(nil)
