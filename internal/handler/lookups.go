package handlers

import (
	"MagnoliaSOS/internal/models"
	"MagnoliaSOS/pkg/response"

	"github.com/gin-gonic/gin"
)

// 取消原因枚举
func (h *Handlers) handleListCancellationReasons(c *gin.Context) {
	reasons, err := models.ListCancellationReasons(c.Request.Context(), h.db, h.cache)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", reasons)
}

// 信号标签
func (h *Handlers) handleListTags(c *gin.Context) {
	tags, err := models.ListSosTags(c.Request.Context(), h.db, h.cache)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", tags)
}
