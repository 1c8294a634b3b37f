package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// 业务错误码。生命周期相关的违规都在写入前被发现并以这些码拒绝。
const (
	CodeInternal          = 1000
	CodeValidation        = 1001 // 请求体缺失/非法字段
	CodeForbidden         = 1002 // 非资源创建者触发受限操作
	CodeNotFound          = 1003
	CodeInvalidState      = 1004 // 信号当前状态下操作不合法
	CodeInvalidTransition = 1005 // 状态机不存在该边
)

// Error represents a coded business error with stack trace
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Err     error      `json:"-"` // 原始错误，不序列化
	Stack   string     `json:"stack,omitempty"`
	Context []KeyValue `json:"context,omitempty"`
}

// KeyValue represents a key-value pair for context
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Wrapper interface
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the business code to an HTTP status
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WithCode creates a new error with code
func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack()}
}

// WithCodef creates a new error with code and formatted message
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

func Validation(format string, args ...interface{}) *Error {
	return WithCodef(CodeValidation, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return WithCodef(CodeForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return WithCodef(CodeNotFound, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return WithCodef(CodeInvalidState, format, args...)
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return WithCodef(CodeInvalidTransition, format, args...)
}

// Wrap wraps an error with message
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeInternal, Message: message, Err: err, Stack: captureStack()}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...), Err: err, Stack: captureStack()}
}

// WithContext adds context to an error without mutating the original
func (e *Error) WithContext(key, value string) *Error {
	if e == nil {
		return nil
	}
	newErr := &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Stack:   e.Stack,
		Context: make([]KeyValue, len(e.Context)),
	}
	copy(newErr.Context, e.Context)
	newErr.Context = append(newErr.Context, KeyValue{Key: key, Value: value})
	return newErr
}

// GetCode returns the business code, CodeInternal for foreign errors
func GetCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given business code
func IsCode(err error, code int) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As 转发标准库 errors.As，调用方不必同时导入两个 errors 包
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is 转发标准库 errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// captureStack captures the current stack trace
func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	// 移除顶部几行（captureStack 和构造函数本身）
	lines := strings.Split(stack, "\n")
	if len(lines) > 6 {
		stack = strings.Join(lines[6:], "\n")
	}
	return strings.TrimSpace(stack)
}
