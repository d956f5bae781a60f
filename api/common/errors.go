package common

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error 处理器统一的错误类型，Message 会返回给调用方，Err 只写入日志
type Error struct {
	Status  int
	Message string
	Fields  gin.H
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithFields 附加额外的响应字段
func (e *Error) WithFields(fields gin.H) *Error {
	e.Fields = fields
	return e
}

func newError(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, message, nil)
}

func Unauthorized() *Error {
	return newError(http.StatusUnauthorized, "Unauthorized", nil)
}

func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, message, nil)
}

func NotFound(message string) *Error {
	return newError(http.StatusNotFound, message, nil)
}

// Unprocessable 上游返回的数据格式不符合预期
func Unprocessable(message string, err error) *Error {
	return newError(http.StatusUnprocessableEntity, message, err)
}

// Internal 内部或上游错误，err 仅记录日志
func Internal(message string, err error) *Error {
	return newError(http.StatusInternalServerError, message, err)
}

// HandlerFunc 返回错误的处理器
type HandlerFunc func(c *gin.Context) error

// Wrap 将返回错误的处理器转换为 gin.HandlerFunc，并统一错误输出
func Wrap(fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c); err != nil {
			WriteError(c, err)
		}
	}
}

// WriteError 按错误分类输出响应
func WriteError(c *gin.Context, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		log.Printf("[API] %s %s: unhandled error: %v", c.Request.Method, c.FullPath(), err)
		RespondErrorAbort(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if apiErr.Err != nil {
		log.Printf("[API] %s %s: %s: %v", c.Request.Method, c.FullPath(), apiErr.Message, apiErr.Err)
	}

	body := gin.H{"error": apiErr.Message}
	for k, v := range apiErr.Fields {
		body[k] = v
	}
	c.AbortWithStatusJSON(apiErr.Status, body)
}
