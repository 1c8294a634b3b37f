package logger

import (
	"os"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig 日志配置
type LogConfig struct {
	Level      string `env:"LOG_LEVEL"`
	Filename   string `env:"LOG_FILENAME"`
	MaxSize    int    `env:"LOG_MAX_SIZE"` // MB
	MaxAge     int    `env:"LOG_MAX_AGE"`  // days
	MaxBackups int    `env:"LOG_MAX_BACKUPS"`
}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init 初始化全局logger；Filename 为空时只输出到 stderr
func Init(cfg LogConfig) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level),
	}
	if cfg.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	mu.Lock()
	global = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	mu.Unlock()
	return nil
}

// L 返回全局logger
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

func Sync() { _ = L().Sync() }
