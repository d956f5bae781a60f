package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SharedRateLimiter 所有客户端共用一个令牌桶，用于限制 AI 调用总量
type SharedRateLimiter struct {
	limiter *rate.Limiter
}

// NewSharedRateLimiter 创建共享限流器，rps <= 0 时不限流
func NewSharedRateLimiter(rps float64, burst int) *SharedRateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &SharedRateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Middleware 返回 Gin 中间件
func (rl *SharedRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter.Allow() {
			reject(c, limiterAIShared, http.StatusTooManyRequests, "AI service is busy, please try again later")
			return
		}
		c.Next()
	}
}
