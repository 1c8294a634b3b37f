package middleware

import (
	constants "MagnoliaSOS/pkg/constant"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware 为每个请求分配 ID，客户端可自带
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(constants.RequestIDField, id)
		c.Header(constants.HeaderRequestID, id)
		c.Next()
	}
}
