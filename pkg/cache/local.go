package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// localCache 进程内缓存实现，基于 go-cache
type localCache struct {
	c *gocache.Cache
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	exp := config.DefaultExpiration
	if exp <= 0 {
		exp = 5 * time.Minute
	}
	cleanup := config.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &localCache{c: gocache.New(exp, cleanup)}
}

func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return lc.c.Get(key)
}

func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	lc.c.Set(key, value, expiration)
	return nil
}

func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.c.Delete(key)
	return nil
}

func (lc *localCache) Exists(ctx context.Context, key string) bool {
	_, found := lc.c.Get(key)
	return found
}

func (lc *localCache) Clear(ctx context.Context) error {
	lc.c.Flush()
	return nil
}

func (lc *localCache) Close() error { return nil }
