package middleware

import (
	constants "MagnoliaSOS/pkg/constant"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InjectDB 把全局 DB 挂到请求上下文
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.DbField, db)
		c.Next()
	}
}
