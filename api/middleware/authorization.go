package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cohortlab/mba-portal/api/common"
)

// RequireAdmin 要求当前用户为管理员，需在 RequireSession 之后使用
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !principal.IsAdmin {
			common.RespondErrorAbort(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}
