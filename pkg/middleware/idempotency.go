package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"MagnoliaSOS/pkg/cache"
	constants "MagnoliaSOS/pkg/constant"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type IdemStore interface {
	Set(key string, ttl time.Duration) bool // return true if set, false if exists
}

type memoryIdemStore struct {
	mu sync.Mutex
	m  map[string]time.Time
}

func newMemoryIdemStore() *memoryIdemStore { return &memoryIdemStore{m: make(map[string]time.Time)} }

func (s *memoryIdemStore) Set(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if exp, ok := s.m[key]; ok && exp.After(now) {
		return false
	}
	s.m[key] = now.Add(ttl)
	return true
}

// 清理过期键
func (s *memoryIdemStore) gc() {
	for {
		time.Sleep(1 * time.Minute)
		now := time.Now()
		s.mu.Lock()
		for k, exp := range s.m {
			if exp.Before(now) {
				delete(s.m, k)
			}
		}
		s.mu.Unlock()
	}
}

// cacheIdemStore 借助 pkg/cache 做幂等键存储，redis 后端下多实例共享
type cacheIdemStore struct {
	c cache.Cache
}

// NewCacheIdemStore 包装一个 Cache 作为幂等存储
func NewCacheIdemStore(c cache.Cache) IdemStore { return &cacheIdemStore{c: c} }

func (s *cacheIdemStore) Set(key string, ttl time.Duration) bool {
	ctx := context.Background()
	if s.c.Exists(ctx, "idem:"+key) {
		return false
	}
	return s.c.Set(ctx, "idem:"+key, 1, ttl) == nil
}

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 决定一段时间内重复请求的拒绝窗口
	Store      IdemStore     // 可选外部存储（如 Redis）
}

func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = constants.HeaderIdempotencyKey
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	store := cfg.Store
	if store == nil {
		mem := newMemoryIdemStore()
		store = mem
		go mem.gc()
	}
	return func(c *gin.Context) {
		// 只在客户端显式携带幂等键时去重：业务本身合法的重复
		// （取消后重建同样内容的信号）不能被当作重放拦掉
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			c.Next()
			return
		}
		// 键按用户隔离，不同用户可以用同一个键值
		if v, ok := c.Get(constants.UserIDField); ok {
			key = cast.ToString(v) + ":" + key
		}
		if !store.Set(key, cfg.TTL) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		c.Next()
	}
}
