package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/infrastructure/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sampleGrants() []identity.Permission {
	branch := int64(5)
	return []identity.Permission{
		{UserID: 1, Resource: access.Customer, Action: access.Read},
		{UserID: 1, BranchID: &branch, Resource: access.Branch, Action: access.AllActions},
	}
}

func mustSet(t *testing.T, c identity.PermissionCache, userID int64, grants []identity.Permission) {
	t.Helper()
	ctx := context.Background()
	gen, err := c.Generation(ctx, userID)
	require.NoError(t, err)
	stored, err := c.Set(ctx, userID, gen, grants)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestInMemoryPermissionCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewInMemoryPermissionCache(time.Minute, WithClock(clock.Now))
	defer c.Close()

	t.Run("miss before set", func(t *testing.T) {
		grants, found, err := c.Get(ctx, 1)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, grants)
	})

	t.Run("hit returns an isolated copy", func(t *testing.T) {
		original := sampleGrants()
		mustSet(t, c, 1, original)
		*original[1].BranchID = 99

		grants, found, err := c.Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, grants, 2)
		assert.Equal(t, int64(5), *grants[1].BranchID)

		grants[0].Action = access.AllActions
		again, _, _ := c.Get(ctx, 1)
		assert.Equal(t, access.Read, again[0].Action)
	})

	t.Run("empty grants are still a hit", func(t *testing.T) {
		mustSet(t, c, 2, nil)
		grants, found, err := c.Get(ctx, 2)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Empty(t, grants)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, c.Invalidate(ctx, 2))
		_, found, _ := c.Get(ctx, 2)
		assert.False(t, found)
		assert.NoError(t, c.Invalidate(ctx, 404))
	})

	t.Run("entries expire after the ttl", func(t *testing.T) {
		clock.Advance(59 * time.Second)
		_, found, _ := c.Get(ctx, 1)
		assert.True(t, found)

		clock.Advance(time.Second)
		_, found, _ = c.Get(ctx, 1)
		assert.False(t, found)

		assert.Equal(t, 1, c.Len())
		c.removeExpired()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("stats", func(t *testing.T) {
		hits, misses := c.Stats()
		assert.Equal(t, int64(4), hits)
		assert.Equal(t, int64(3), misses)
	})
}

func TestInMemoryPermissionCache_Concurrent(t *testing.T) {
	c := NewInMemoryPermissionCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				gen, _ := c.Generation(ctx, id)
				_, _ = c.Set(ctx, id, gen, sampleGrants())
				_, _, _ = c.Get(ctx, id)
				_ = c.Invalidate(ctx, id)
			}
		}(int64(i))
	}
	wg.Wait()
	assert.Equal(t, 0, c.Len())
}

func TestInMemoryPermissionCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewInMemoryPermissionCache(time.Minute, WithMaxEntries(2))
	defer c.Close()
	ctx := context.Background()

	mustSet(t, c, 1, sampleGrants())
	mustSet(t, c, 2, sampleGrants())
	_, found, _ := c.Get(ctx, 1)
	require.True(t, found)

	mustSet(t, c, 3, sampleGrants())
	assert.Equal(t, 2, c.Len())

	_, found, _ = c.Get(ctx, 2)
	assert.False(t, found, "user 2 was least recently used")
	_, found, _ = c.Get(ctx, 1)
	assert.True(t, found)
	_, found, _ = c.Get(ctx, 3)
	assert.True(t, found)
}

func TestInMemoryPermissionCache_StaleSetAfterInvalidate(t *testing.T) {
	c := NewInMemoryPermissionCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	gen, err := c.Generation(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)

	// a revoke lands while the loader is still reading the repository
	require.NoError(t, c.Invalidate(ctx, 9))

	stored, err := c.Set(ctx, 9, gen, sampleGrants())
	require.NoError(t, err)
	assert.False(t, stored)
	_, found, _ := c.Get(ctx, 9)
	assert.False(t, found, "grants read before the invalidation must not be cached")

	next, err := c.Generation(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
	stored, err = c.Set(ctx, 9, next, nil)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestInMemoryPermissionCache_GenerationSurvivesEviction(t *testing.T) {
	c := NewInMemoryPermissionCache(time.Minute, WithMaxEntries(1))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Invalidate(ctx, 1))
	mustSet(t, c, 1, sampleGrants())
	mustSet(t, c, 2, sampleGrants())

	gen, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	stored, err := c.Set(ctx, 1, 0, sampleGrants())
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestInMemoryPermissionCache_CloseTwice(t *testing.T) {
	c := NewInMemoryPermissionCache(time.Minute)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisPermissionCache(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	c := NewRedisPermissionCache(client, "", time.Minute)

	assert.Equal(t, "sultan:permissions:{42}", c.key(42))
	assert.Equal(t, "sultan:permissions:{42}:gen", c.generationKey(42))
	assert.Equal(t, "x:{7}", NewRedisPermissionCache(client, "x:", time.Minute).key(7))

	ctx := context.Background()
	_, found, err := c.Get(ctx, 42)
	assert.Error(t, err, "connection errors are not misses")
	assert.False(t, found)
	_, err = c.Generation(ctx, 42)
	assert.Error(t, err)
	stored, err := c.Set(ctx, 42, 0, sampleGrants())
	assert.Error(t, err)
	assert.False(t, stored)
	assert.Error(t, c.Invalidate(ctx, 42))
}

func TestRedisPermissionCache_Generations(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := NewRedisPermissionCache(client, "", time.Minute)
	ctx := context.Background()

	gen, err := c.Generation(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)

	stored, err := c.Set(ctx, 9, gen, sampleGrants())
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, time.Minute, mr.TTL(c.key(9)))

	grants, found, err := c.Get(ctx, 9)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, grants, 2)
	assert.Equal(t, int64(5), *grants[1].BranchID)

	require.NoError(t, c.Invalidate(ctx, 9))
	assert.False(t, mr.Exists(c.key(9)))

	stored, err = c.Set(ctx, 9, gen, sampleGrants())
	require.NoError(t, err)
	assert.False(t, stored, "a fill read before the invalidation is dropped")
	_, found, err = c.Get(ctx, 9)
	require.NoError(t, err)
	assert.False(t, found)

	gen, err = c.Generation(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	stored, err = c.Set(ctx, 9, gen, nil)
	require.NoError(t, err)
	assert.True(t, stored)
	grants, found, err = c.Get(ctx, 9)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, grants)
}

func TestRedisPermissionCache_NoTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := NewRedisPermissionCache(client, "", 0)

	stored, err := c.Set(context.Background(), 1, 0, sampleGrants())
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, time.Duration(0), mr.TTL(c.key(1)))
}

func TestPermissionCacheFactory(t *testing.T) {
	ctx := context.Background()
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("memory", func(t *testing.T) {
		f := NewPermissionCacheFactory(config.PermissionConfig{CacheBackend: "memory", CacheTTL: time.Minute}, unreachable)
		c, closer, err := f.Create(ctx)
		require.NoError(t, err)
		defer closer.Close()
		assert.IsType(t, &InMemoryPermissionCache{}, c)
	})

	t.Run("none", func(t *testing.T) {
		f := NewPermissionCacheFactory(config.PermissionConfig{CacheBackend: "none"}, unreachable)
		c, closer, err := f.Create(ctx)
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.NoError(t, closer.Close())
	})

	t.Run("unknown backend", func(t *testing.T) {
		f := NewPermissionCacheFactory(config.PermissionConfig{CacheBackend: "memcached"}, unreachable)
		_, _, err := f.Create(ctx)
		assert.Error(t, err)
	})

	t.Run("redis falls back to memory", func(t *testing.T) {
		f := NewPermissionCacheFactory(config.PermissionConfig{CacheBackend: "redis", CacheTTL: time.Minute}, unreachable)
		c, closer, err := f.Create(ctx)
		require.NoError(t, err)
		defer closer.Close()
		assert.IsType(t, &InMemoryPermissionCache{}, c)
	})

	t.Run("redis without fallback fails", func(t *testing.T) {
		f := NewPermissionCacheFactory(config.PermissionConfig{CacheBackend: "redis"}, unreachable, WithInMemoryFallback(false))
		_, _, err := f.Create(ctx)
		assert.Error(t, err)
	})
}
