package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sultan/backend/internal/domain/identity"
)

const defaultPermissionKeyPrefix = "sultan:permissions:"

// setIfGeneration writes KEYS[1] only while the generation counter in
// KEYS[2] still equals ARGV[1]. A missing counter reads as 0.
var setIfGeneration = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// RedisPermissionCache stores each user's grants as one JSON value with a TTL,
// shared by every instance pointing at the same Redis.
type RedisPermissionCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisPermissionCache wraps an existing client. An empty prefix selects
// the default one.
func NewRedisPermissionCache(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisPermissionCache {
	if keyPrefix == "" {
		keyPrefix = defaultPermissionKeyPrefix
	}
	return &RedisPermissionCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// key wraps the user id in a hash tag so the grants and generation keys share
// a cluster slot, which the Set script requires
func (c *RedisPermissionCache) key(userID int64) string {
	return c.keyPrefix + "{" + strconv.FormatInt(userID, 10) + "}"
}

func (c *RedisPermissionCache) generationKey(userID int64) string {
	return c.key(userID) + ":gen"
}

// Get reads the grants. redis.Nil is a miss.
func (c *RedisPermissionCache) Get(ctx context.Context, userID int64) ([]identity.Permission, bool, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached permissions: %w", err)
	}

	var grants []identity.Permission
	if err := json.Unmarshal(data, &grants); err != nil {
		return nil, false, fmt.Errorf("decode cached permissions: %w", err)
	}
	return grants, true, nil
}

// Generation reads the user's invalidation counter, shared by all instances
func (c *RedisPermissionCache) Generation(ctx context.Context, userID int64) (uint64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(userID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get permission generation: %w", err)
	}
	return gen, nil
}

// Set writes the grants with the cache TTL. The generation compare and the
// write run as one script, so an Invalidate from any instance either lands
// before (and the write is skipped) or after (and deletes it).
func (c *RedisPermissionCache) Set(ctx context.Context, userID int64, generation uint64, grants []identity.Permission) (bool, error) {
	if grants == nil {
		grants = []identity.Permission{}
	}
	data, err := json.Marshal(grants)
	if err != nil {
		return false, fmt.Errorf("encode permissions: %w", err)
	}
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{c.key(userID), c.generationKey(userID)},
		strconv.FormatUint(generation, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("set cached permissions: %w", err)
	}
	return stored == 1, nil
}

// Invalidate advances the generation and deletes the user's grants in one
// transaction
func (c *RedisPermissionCache) Invalidate(ctx context.Context, userID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(userID))
		pipe.Del(ctx, c.key(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate cached permissions: %w", err)
	}
	return nil
}

var _ identity.PermissionCache = (*RedisPermissionCache)(nil)
