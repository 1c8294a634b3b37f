package handlers

import (
	"MagnoliaSOS/internal/models"
	sospkg "MagnoliaSOS/internal/sos"
	"MagnoliaSOS/pkg/cache"
	"MagnoliaSOS/pkg/config"
	"MagnoliaSOS/pkg/metrics"
	"MagnoliaSOS/pkg/middleware"
	"MagnoliaSOS/pkg/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	db      *gorm.DB
	ctrl    *sospkg.Controller
	cache   cache.Cache
	hub     *websocket.Hub
	limiter *middleware.RateLimiter
}

func NewHandlers(db *gorm.DB, c cache.Cache, hub *websocket.Hub, limiter *middleware.RateLimiter) *Handlers {
	return &Handlers{
		db:      db,
		ctrl:    sospkg.NewController(db),
		cache:   c,
		hub:     hub,
		limiter: limiter,
	}
}

// Controller 暴露给测试和 cron 装配
func (h *Handlers) Controller() *sospkg.Controller { return h.ctrl }

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	// Register Global Singleton DB
	r.Use(middleware.InjectDB(h.db))

	h.registerSystemRoutes(r)
	h.registerSosRoutes(r)
}

// SOS Module
func (h *Handlers) registerSosRoutes(r *gin.RouterGroup) {
	sos := r.Group("sos")
	sos.Use(models.AuthRequired)

	// 创建是唯一非幂等写操作，客户端重试靠 Idempotency-Key 去重
	idem := middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{
		Store: middleware.NewCacheIdemStore(h.cache),
	})
	{
		// 枚举查询
		sos.GET("/cancellation-reasons", h.handleListCancellationReasons)
		sos.GET("/tags", h.handleListTags)

		// 信号生命周期
		sos.POST("", idem, h.handleCreateSignal)
		sos.GET("/mine", h.handleListMine)
		sos.GET("/:id", h.handleGetSignal)
		sos.PUT("/:id", h.handleUpdateSignal)
		sos.POST("/cancel/:id", h.handleCancelSignal)
		sos.POST("/resolve/:id", h.handleResolveSignal)

		// 援助者
		sos.POST("/help", h.handleOfferHelp)
		sos.POST("/help/withdraw", h.handleWithdrawOffer)
		sos.GET("/helpers/:id", h.handleListHelpers)
		sos.POST("/confirm-helpers", h.handleConfirmHelpers)

		// 实时事件订阅
		sos.GET("/subscribe", h.handleSubscribe)
	}
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.POST("/rate-limiter/config", h.UpdateRateLimiterConfig)

		system.GET("/health", h.HealthCheck)
	}
	if config.GlobalConfig.MetricsEnabled {
		r.GET("/metrics", metrics.Handler())
	}
}
