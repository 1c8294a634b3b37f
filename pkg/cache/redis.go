package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache Redis缓存实现
type redisCache struct {
	client *redis.Client
	config RedisConfig
}

// NewRedisCache 创建Redis缓存
func NewRedisCache(config RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisCache{client: client, config: config}, nil
}

func (rc *redisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	result := rc.client.Get(ctx, key)
	if result.Err() != nil {
		return nil, false
	}
	var value interface{}
	if err := json.Unmarshal([]byte(result.Val()), &value); err != nil {
		// 非 JSON 值按原始字符串返回
		return result.Val(), true
	}
	return value, true
}

func (rc *redisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return rc.client.Set(ctx, key, data, expiration).Err()
}

func (rc *redisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Del(ctx, key).Err()
}

func (rc *redisCache) Exists(ctx context.Context, key string) bool {
	n, err := rc.client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

func (rc *redisCache) Clear(ctx context.Context) error {
	return rc.client.FlushDB(ctx).Err()
}

func (rc *redisCache) Close() error {
	return rc.client.Close()
}
