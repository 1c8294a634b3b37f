package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	constants "MagnoliaSOS/pkg/constant"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/cast"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig 限流配置
//
// Rate: "100-M"、"5-M" 等 limiter 速率格式
// PerRouteRates: 按路由覆盖速率，信号创建等热点路径单独收紧
// Identifier: "ip" 或 "user"（登录后按用户限流）
// SkipPaths: 前缀匹配，健康检查和 metrics 不限流
type RateLimiterConfig struct {
	Rate          string            `json:"rate"`
	PerRouteRates map[string]string `json:"per_route_rates"`
	Identifier    string            `json:"identifier"`
	SkipPaths     []string          `json:"skip_paths"`
	AddHeaders    bool              `json:"add_headers"`
	DenyStatus    int               `json:"deny_status"` // 默认 429
	DenyMessage   string            `json:"deny_message"`
}

// MetricsObserver 指标上报接口
type MetricsObserver interface {
	OnAllow(route string)
	OnDeny(route string)
}

// PrometheusObserver 基于 Prometheus 的实现
type PrometheusObserver struct {
	allow *prometheus.CounterVec
	deny  *prometheus.CounterVec
}

func NewPrometheusObserver() *PrometheusObserver {
	return &PrometheusObserver{
		allow: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_allow_total",
			Help: "Allowed requests by rate limiter",
		}, []string{"route"}),
		deny: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_deny_total",
			Help: "Denied requests by rate limiter",
		}, []string{"route"}),
	}
}

func (p *PrometheusObserver) OnAllow(route string) { p.allow.WithLabelValues(route).Inc() }
func (p *PrometheusObserver) OnDeny(route string)  { p.deny.WithLabelValues(route).Inc() }

// RateLimiter 面向实例的限流器，按速率字符串缓存 limiter
type RateLimiter struct {
	cfg            *RateLimiterConfig
	store          limiter.Store
	observer       MetricsObserver
	limitersByRate map[string]*limiter.Limiter
	mu             sync.RWMutex
}

// NewRateLimiter 构造函数，store 为 nil 时用内存存储
func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	return &RateLimiter{
		cfg:            &cfg,
		store:          store,
		limitersByRate: make(map[string]*limiter.Limiter),
	}
}

// WithObserver 配置指标观察者
func (l *RateLimiter) WithObserver(observer MetricsObserver) *RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = observer
	return l
}

// UpdateConfig 动态更新限流配置
func (l *RateLimiter) UpdateConfig(cfg RateLimiterConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = &cfg
}

// Config 返回当前配置（拷贝）
func (l *RateLimiter) Config() RateLimiterConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *l.cfg
}

// Middleware 返回 Gin 中间件
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := l.getConfig()

		if pathSkipped(*cfg, c.FullPath(), c.Request.URL.Path) {
			c.Next()
			return
		}

		key := buildLimitKey(*cfg, c)
		rateStr := l.pickRateForRoute(cfg, c)
		lim := l.getLimiter(rateStr)

		lctx, err := lim.Get(c, key)
		if err != nil {
			c.Next()
			return
		}
		if cfg.AddHeaders {
			setStandardHeaders(c, lctx)
		}
		if lctx.Reached {
			setRetryAfter(c, time.Until(time.Unix(lctx.Reset, 0)))
			l.report(c, false)
			denyTooMany(c, *cfg)
			return
		}

		l.report(c, true)
		c.Next()
	}
}

func (l *RateLimiter) report(c *gin.Context, allowed bool) {
	l.mu.RLock()
	obs := l.observer
	l.mu.RUnlock()
	if obs == nil {
		return
	}
	r := c.FullPath()
	if r == "" {
		r = c.Request.URL.Path
	}
	if allowed {
		obs.OnAllow(r)
	} else {
		obs.OnDeny(r)
	}
}

func (l *RateLimiter) getLimiter(rateStr string) *limiter.Limiter {
	l.mu.RLock()
	lim, ok := l.limitersByRate[rateStr]
	l.mu.RUnlock()
	if ok {
		return lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limitersByRate[rateStr]; ok {
		return lim
	}
	r, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r = limiter.Rate{Period: time.Second, Limit: 10}
	}
	lim = limiter.New(l.store, r)
	l.limitersByRate[rateStr] = lim
	return lim
}

func (l *RateLimiter) pickRateForRoute(cfg *RateLimiterConfig, c *gin.Context) string {
	if cfg.PerRouteRates != nil {
		if full := c.FullPath(); full != "" {
			if r, ok := cfg.PerRouteRates[full]; ok && r != "" {
				return r
			}
		}
		if raw := c.Request.URL.Path; raw != "" {
			if r, ok := cfg.PerRouteRates[raw]; ok && r != "" {
				return r
			}
		}
	}
	if cfg.Rate != "" {
		return cfg.Rate
	}
	return "10-S"
}

func (l *RateLimiter) getConfig() *RateLimiterConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

func pathSkipped(cfg RateLimiterConfig, fullPath, rawPath string) bool {
	if len(cfg.SkipPaths) == 0 {
		return false
	}
	p := fullPath
	if p == "" {
		p = rawPath
	}
	for _, pref := range cfg.SkipPaths {
		if pref == "" {
			continue
		}
		if strings.HasPrefix(p, pref) {
			return true
		}
	}
	return false
}

func buildLimitKey(cfg RateLimiterConfig, c *gin.Context) string {
	if cfg.Identifier == "user" {
		if v, ok := c.Get(constants.UserIDField); ok {
			return "user:" + cast.ToString(v)
		}
	}
	ip := c.ClientIP()
	if strings.HasPrefix(ip, "::ffff:") {
		ip = strings.TrimPrefix(ip, "::ffff:")
	}
	return "ip:" + ip
}

func setStandardHeaders(c *gin.Context, ctx limiter.Context) {
	c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
	resetSec := int(time.Until(time.Unix(ctx.Reset, 0)).Seconds())
	if resetSec < 0 {
		resetSec = 0
	}
	c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))
}

func setRetryAfter(c *gin.Context, d time.Duration) {
	sec := int(d.Seconds())
	if sec < 0 {
		sec = 0
	}
	c.Header("Retry-After", strconv.Itoa(sec))
}

func denyTooMany(c *gin.Context, cfg RateLimiterConfig) {
	status := cfg.DenyStatus
	if status == 0 {
		status = http.StatusTooManyRequests
	}
	msg := cfg.DenyMessage
	if msg == "" {
		msg = "Too Many Requests"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
