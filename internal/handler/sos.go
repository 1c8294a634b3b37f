package handlers

import (
	"MagnoliaSOS/internal/models"
	sospkg "MagnoliaSOS/internal/sos"
	"MagnoliaSOS/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// 创建求助信号
func (h *Handlers) handleCreateSignal(c *gin.Context) {
	var req sospkg.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "error.validation", gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(c)

	signal, err := h.ctrl.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "sos.created", signal)
}

// 查询单个信号
func (h *Handlers) handleGetSignal(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	signal, err := h.ctrl.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", signal)
}

// 当前用户创建的信号列表
func (h *Handlers) handleListMine(c *gin.Context) {
	user := models.CurrentUser(c)
	signals, err := h.ctrl.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", signals)
}

// 创建者修改描述性字段（仅 open 状态）
func (h *Handlers) handleUpdateSignal(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	var patch models.SignalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Fail(c, "error.validation", gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(c)

	signal, err := h.ctrl.UpdateDetails(c.Request.Context(), id, user.ID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", signal)
}

// 取消信号，必须给出枚举内的取消原因
func (h *Handlers) handleCancelSignal(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	var req struct {
		ReasonID string `json:"reasonId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "error.validation", gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(c)

	signal, err := h.ctrl.Cancel(c.Request.Context(), id, user.ID, req.ReasonID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "sos.cancelled", signal)
}

// 标记信号已解决
func (h *Handlers) handleResolveSignal(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	user := models.CurrentUser(c)

	signal, err := h.ctrl.Resolve(c.Request.Context(), id, user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "sos.resolved", signal)
}
