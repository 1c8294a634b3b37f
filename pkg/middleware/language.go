package middleware

import (
	constants "MagnoliaSOS/pkg/constant"

	"github.com/gin-gonic/gin"
)

func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取请求中的语言（从查询参数或头部）
		lang := c.DefaultQuery("lang", c.GetHeader("Accept-Language"))
		if lang != "en" && lang != "zh" {
			lang = "en" // 如果传入的语言无效，则使用默认的英文
		}

		c.Set(constants.LangField, lang)
		c.Next()
	}
}
