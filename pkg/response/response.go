package response

import (
	"net/http"

	"MagnoliaSOS/pkg/errors"
	"MagnoliaSOS/pkg/i18n"

	"github.com/gin-gonic/gin"
)

// Body 统一响应结构：每个端点只有这一种形状
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 200 响应
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: localize(c, message), Data: data})
}

// Created 201 响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Code: 0, Message: localize(c, message), Data: data})
}

// Fail 通用失败响应（400）
func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Code: errors.CodeValidation, Message: localize(c, message), Data: data})
}

// Error 按业务错误码映射 HTTP 状态并本地化文案
func Error(c *gin.Context, err error) {
	var e *errors.Error
	if !errors.As(err, &e) {
		e = errors.Wrap(err, "internal error")
	}
	c.JSON(e.HTTPStatus(), Body{Code: e.Code, Message: localize(c, messageKey(e.Code))})
}

func messageKey(code int) string {
	switch code {
	case errors.CodeValidation:
		return "error.validation"
	case errors.CodeForbidden:
		return "error.forbidden"
	case errors.CodeNotFound:
		return "error.not_found"
	case errors.CodeInvalidState:
		return "error.invalid_state"
	case errors.CodeInvalidTransition:
		return "error.invalid_transition"
	default:
		return "error.internal"
	}
}

func localize(c *gin.Context, key string) string {
	support := i18n.Default()
	if support == nil {
		return key
	}
	lang := c.GetString("lang")
	if lang == "" {
		lang = "en"
	}
	return support.T(lang, key, nil)
}
