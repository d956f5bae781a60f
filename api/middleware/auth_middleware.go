package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cohortlab/mba-portal/api/common"
	"github.com/cohortlab/mba-portal/internal/auth"
)

const ContextPrincipalKey = "principal"

// SessionResolver 从请求中解析当前用户
type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*auth.Principal, error)
}

// RequireSession 要求请求携带有效会话，否则返回 401
func RequireSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := resolver.Resolve(c.Request.Context(), c.Request)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) && !errors.Is(err, auth.ErrInvalidSession) {
				log.Printf("[Auth] Session lookup failed: %v", err)
			}
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// GetPrincipal 获取 RequireSession 写入的用户
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	val, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil, false
	}
	principal, ok := val.(*auth.Principal)
	return principal, ok && principal != nil
}

// AuthenticatedFunc 已认证的处理器
type AuthenticatedFunc func(c *gin.Context, principal *auth.Principal) error

// Authenticated 解析会话后调用 fn，错误统一由 common.Wrap 输出
func Authenticated(resolver SessionResolver, fn AuthenticatedFunc) gin.HandlerFunc {
	return common.Wrap(func(c *gin.Context) error {
		principal, ok := GetPrincipal(c)
		if !ok {
			var err error
			principal, err = resolver.Resolve(c.Request.Context(), c.Request)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) && !errors.Is(err, auth.ErrInvalidSession) {
					log.Printf("[Auth] Session lookup failed: %v", err)
				}
				return common.Unauthorized()
			}
			c.Set(ContextPrincipalKey, principal)
		}
		return fn(c, principal)
	})
}
