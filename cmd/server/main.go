package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	handlers "MagnoliaSOS/internal/handler"
	"MagnoliaSOS/internal/listeners"
	"MagnoliaSOS/internal/models"
	sospkg "MagnoliaSOS/internal/sos"
	"MagnoliaSOS/pkg/cache"
	"MagnoliaSOS/pkg/config"
	"MagnoliaSOS/pkg/i18n"
	"MagnoliaSOS/pkg/logger"
	"MagnoliaSOS/pkg/metrics"
	"MagnoliaSOS/pkg/backup"
	"MagnoliaSOS/pkg/middleware"
	"MagnoliaSOS/pkg/notification"
	"MagnoliaSOS/pkg/scheduler"
	"MagnoliaSOS/pkg/util"
	"MagnoliaSOS/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if support, err := i18n.NewI18nSupport("en"); err == nil {
		i18n.SetDefault(support)
	}

	db, err := util.InitDatabase(cfg.DBDriver, cfg.DSN, cfg.Mode == "debug")
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		return
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.SosSignal{},
		&models.HelperOffer{},
		&models.CancellationReason{},
		&models.SosTag{},
		&middleware.OperationLog{},
	); err != nil {
		logger.Error("failed to migrate schema", zap.Error(err))
		return
	}
	if err := models.SeedLookups(db); err != nil {
		logger.Error("failed to seed lookups", zap.Error(err))
		return
	}

	appCache, err := cache.NewCache(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       int(cfg.RedisDB),
		},
	})
	if err != nil {
		logger.Error("failed to init cache", zap.Error(err))
		return
	}
	defer appCache.Close()

	hub := websocket.NewHub()
	listeners.InitSosListeners(hub)
	listeners.InitNotifyListeners(db,
		notification.NewAliyunSMS(notification.AliyunSMSConfig{
			SignName:     cfg.SMSSignName,
			TemplateCode: cfg.SMSTemplateCode,
		}, nil),
		notification.NewJPush(notification.JPushConfig{
			AppKey:       cfg.PushAppKey,
			MasterSecret: cfg.PushSecret,
		}, nil))

	middleware.InitGeoIP(cfg.GeoIPPath)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		Identifier: "user",
		PerRouteRates: map[string]string{
			cfg.APIPrefix + "/sos": cfg.CreateRateLimit,
		},
		SkipPaths:  []string{cfg.APIPrefix + "/system", cfg.APIPrefix + "/metrics"},
		AddHeaders: true,
	}, nil).WithObserver(middleware.NewPrometheusObserver())

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	if cfg.LanguageEnabled {
		engine.Use(middleware.LanguageMiddleware())
	}
	if cfg.MetricsEnabled {
		engine.Use(metrics.HTTPMiddleware())
	}
	engine.Use(limiter.Middleware())
	engine.Use(middleware.OperationLogMiddleware(db))

	h := handlers.NewHandlers(db, appCache, hub, limiter)
	h.Register(engine)

	// 超龄 open 信号的定时提醒
	cr := scheduler.NewCron(nil)
	sweep := sospkg.NewStaleSweep(h.Controller(), time.Duration(cfg.StaleSignalHours)*time.Hour)
	if _, err := cr.Add(cfg.StaleSweepCron, sweep); err != nil {
		logger.Warn("failed to schedule stale sweep", zap.Error(err))
	}
	if cfg.BackupEnabled {
		job := scheduler.FuncJob(func(ctx context.Context) {
			if err := backup.Run(); err != nil {
				logger.Warn("backup failed", zap.Error(err))
			}
		})
		if _, err := cr.Add(cfg.BackupSchedule, job); err != nil {
			logger.Warn("failed to schedule backup", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
