package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// LoadEnv 根据环境加载 .env 文件（.env 先加载，.env.<env> 覆盖）
func LoadEnv(env string) error {
	loaded := false
	for _, name := range []string{".env", ".env." + env} {
		if err := loadEnvFile(name); err == nil {
			loaded = true
		}
	}
	if !loaded {
		return fmt.Errorf("no .env file found for environment %q", env)
	}
	return nil
}

func loadEnvFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		// 已有的环境变量优先于文件
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

func GetDurationEnv(key string) time.Duration {
	return cast.ToDuration(os.Getenv(key))
}
