package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondSuccess 输出 {"success": true, ...fields}
func RespondSuccess(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// RespondErrorAbort 输出错误并中止后续处理
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{"error": message})
}
