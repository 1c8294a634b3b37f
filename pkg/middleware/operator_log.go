package middleware

import (
	"net"
	"sync"
	"time"

	constants "MagnoliaSOS/pkg/constant"
	"MagnoliaSOS/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/oschwald/geoip2-golang"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OperationLog 记录用户对 SOS 接口的变更操作
type OperationLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:16" json:"action"`  // POST、PUT、DELETE
	Target    string    `gorm:"size:255" json:"target"` // API 路径
	Status    int       `json:"status"`                 // 响应状态码
	RequestID string    `gorm:"size:64" json:"request_id"`
	IPAddress string    `gorm:"size:64" json:"ip_address"`
	Device    string    `gorm:"size:64" json:"device"`
	Browser   string    `gorm:"size:64" json:"browser"`
	OS        string    `gorm:"size:64" json:"os"`
	Location  string    `gorm:"size:128" json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	geoOnce sync.Once
	geoDB   *geoip2.Reader
)

// InitGeoIP 加载 GeoIP 数据库，文件缺失时静默降级
func InitGeoIP(path string) {
	geoOnce.Do(func() {
		if path == "" {
			return
		}
		db, err := geoip2.Open(path)
		if err != nil {
			logger.Warn("geoip database unavailable", zap.String("path", path), zap.Error(err))
			return
		}
		geoDB = db
	})
}

func getGeoLocation(ipAddress string) string {
	if geoDB == nil {
		return ""
	}
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return ""
	}
	city, err := geoDB.City(ip)
	if err != nil {
		return ""
	}
	name := city.City.Names["en"]
	if country := city.Country.Names["en"]; country != "" {
		if name != "" {
			return name + ", " + country
		}
		return country
	}
	return name
}

// OperationLogMiddleware 记录变更类请求的操作日志，写失败不阻断请求
func OperationLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		method := c.Request.Method
		if method == "GET" || method == "HEAD" || method == "OPTIONS" {
			return
		}

		userID, _ := c.Get(constants.UserIDField)
		ua := user_agent.New(c.GetHeader("User-Agent"))
		browser, version := ua.Browser()
		ipAddress := c.ClientIP()

		entry := OperationLog{
			UserID:    cast.ToUint(userID),
			Action:    method,
			Target:    c.Request.URL.Path,
			Status:    c.Writer.Status(),
			RequestID: c.GetString(constants.RequestIDField),
			IPAddress: ipAddress,
			Device:    ua.Platform(),
			Browser:   browser + version,
			OS:        ua.OS(),
			Location:  getGeoLocation(ipAddress),
		}
		if err := db.Create(&entry).Error; err != nil {
			logger.Warn("failed to record operation log", zap.Error(err))
		}
	}
}
