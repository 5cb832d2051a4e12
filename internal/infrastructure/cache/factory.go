package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/infrastructure/config"
)

const pingTimeout = 5 * time.Second

// PermissionCacheFactory builds the permission cache selected by configuration
type PermissionCacheFactory struct {
	permission            config.PermissionConfig
	redis                 config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for the factory
type FactoryOption func(*PermissionCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *PermissionCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory cache instead of failing. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *PermissionCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPermissionCacheFactory creates a new factory
func NewPermissionCacheFactory(permission config.PermissionConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *PermissionCacheFactory {
	f := &PermissionCacheFactory{
		permission:            permission,
		redis:                 redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the cache and a closer for its resources. The "none"
// backend yields a nil cache, which callers treat as always missing.
func (f *PermissionCacheFactory) Create(ctx context.Context) (identity.PermissionCache, io.Closer, error) {
	switch f.permission.CacheBackend {
	case "none":
		f.logger.Info("Permission cache disabled")
		return nil, closerFunc(func() error { return nil }), nil
	case "redis":
		c, client, err := f.createRedis(ctx)
		if err == nil {
			f.logger.Info("Using Redis permission cache", zap.String("addr", f.redis.Addr()))
			return c, client, nil
		}
		if !f.allowInMemoryFallback {
			return nil, nil, err
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory permission cache. "+
			"Grant changes on other instances will be seen only after the TTL expires.",
			zap.Error(err),
		)
	case "", "memory":
	default:
		return nil, nil, fmt.Errorf("unknown permission cache backend %q", f.permission.CacheBackend)
	}

	mem := NewInMemoryPermissionCache(f.permission.CacheTTL)
	f.logger.Info("Using in-memory permission cache", zap.Duration("ttl", f.permission.CacheTTL))
	return mem, mem, nil
}

func (f *PermissionCacheFactory) createRedis(ctx context.Context) (*RedisPermissionCache, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redis.Addr(),
		Password: f.redis.Password,
		DB:       f.redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to Redis at %s: %w", f.redis.Addr(), err)
	}

	return NewRedisPermissionCache(client, "", f.permission.CacheTTL), client, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
