package config

import (
	"log"
	"os"

	"MagnoliaSOS/pkg/logger"
	"MagnoliaSOS/pkg/util"
)

type Config struct {
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	Log       logger.LogConfig
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`

	// 缓存
	CacheType     string `env:"CACHE_TYPE"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int64  `env:"REDIS_DB"`

	// 限流：信号创建是热点路径，单独收紧
	RateLimit       string `env:"RATE_LIMIT"`
	CreateRateLimit string `env:"SOS_CREATE_RATE_LIMIT"`

	// 运维
	LanguageEnabled bool   `env:"LANGUAGE_ENABLED"`
	GeoIPPath       string `env:"GEOIP_DB_PATH"`
	MetricsEnabled  bool   `env:"METRICS_ENABLED"`

	// 超过该小时数仍 open 的信号会触发提醒事件
	StaleSignalHours int64  `env:"SOS_STALE_HOURS"`
	StaleSweepCron   string `env:"SOS_STALE_SWEEP_CRON"`

	// 备份
	BackupEnabled  bool   `env:"BACKUP_ENABLED"`
	BackupSchedule string `env:"BACKUP_SCHEDULE"`
	BackupPath     string `env:"BACKUP_PATH"`

	// 通知通道，留空则只走 websocket
	SMSSignName     string `env:"SMS_SIGN_NAME"`
	SMSTemplateCode string `env:"SMS_TEMPLATE_CODE"`
	PushAppKey      string `env:"PUSH_APP_KEY"`
	PushSecret      string `env:"PUSH_MASTER_SECRET"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnv("MODE"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		CacheType:        util.GetEnvDefault("CACHE_TYPE", "local"),
		RedisAddr:        util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    util.GetEnv("REDIS_PASSWORD"),
		RedisDB:          util.GetIntEnv("REDIS_DB"),
		RateLimit:        util.GetEnvDefault("RATE_LIMIT", "100-M"),
		CreateRateLimit:  util.GetEnvDefault("SOS_CREATE_RATE_LIMIT", "5-M"),
		LanguageEnabled:  util.GetBoolEnv("LANGUAGE_ENABLED"),
		GeoIPPath:        util.GetEnv("GEOIP_DB_PATH"),
		MetricsEnabled:   util.GetBoolEnv("METRICS_ENABLED"),
		StaleSignalHours: util.GetIntEnv("SOS_STALE_HOURS"),
		StaleSweepCron:   util.GetEnvDefault("SOS_STALE_SWEEP_CRON", "0 * * * *"),
		BackupEnabled:    util.GetBoolEnv("BACKUP_ENABLED"),
		BackupSchedule:   util.GetEnvDefault("BACKUP_SCHEDULE", "0 3 * * *"),
		BackupPath:       util.GetEnvDefault("BACKUP_PATH", "./backups"),
		SMSSignName:      util.GetEnv("SMS_SIGN_NAME"),
		SMSTemplateCode:  util.GetEnv("SMS_TEMPLATE_CODE"),
		PushAppKey:       util.GetEnv("PUSH_APP_KEY"),
		PushSecret:       util.GetEnv("PUSH_MASTER_SECRET"),
	}
	if GlobalConfig.StaleSignalHours <= 0 {
		GlobalConfig.StaleSignalHours = 24
	}
	return nil
}
