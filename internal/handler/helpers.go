package handlers

import (
	"MagnoliaSOS/internal/models"
	"MagnoliaSOS/pkg/response"
	"MagnoliaSOS/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// 响应者登记援助意向，重复调用返回同一条记录
func (h *Handlers) handleOfferHelp(c *gin.Context) {
	var req struct {
		SosID uint `json:"sosId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "error.validation", gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(c)

	offer, created, err := h.ctrl.Offer(c.Request.Context(), req.SosID, user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, "sos.offer_recorded", offer)
		return
	}
	response.Success(c, "sos.offer_recorded", offer)
}

// 响应者撤回自己的意向
func (h *Handlers) handleWithdrawOffer(c *gin.Context) {
	var req struct {
		SosID uint `json:"sosId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "error.validation", gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(c)

	if err := h.ctrl.Withdraw(c.Request.Context(), req.SosID, user.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "sos.offer_withdrawn", nil)
}

// 意向列表，带响应者档案，先到先得排序
func (h *Handlers) handleListHelpers(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	views, err := h.ctrl.ListHelpers(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", views)
}

// 创建者确认援助者，集合替换语义
func (h *Handlers) handleConfirmHelpers(c *gin.Context) {
	var req struct {
		SosID   uint   `json:"sosId"`
		Helpers []uint `json:"helpers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "error.validation", gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(c)

	views, err := h.ctrl.ConfirmHelpers(c.Request.Context(), req.SosID, user.ID, req.Helpers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "sos.helpers_confirmed", views)
}

// websocket 订阅信号事件
func (h *Handlers) handleSubscribe(c *gin.Context) {
	user := models.CurrentUser(c)
	websocket.Serve(h.hub, user.ID, c)
}
