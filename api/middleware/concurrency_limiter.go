package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimiter 限制同时处理的请求数
type ConcurrencyLimiter struct {
	sem *semaphore.Weighted
}

func NewConcurrencyLimiter(maxConcurrency int64) *ConcurrencyLimiter {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &ConcurrencyLimiter{sem: semaphore.NewWeighted(maxConcurrency)}
}

// Middleware 没有空位时立即返回 503，skipPaths 中的路由不占用名额
func (cl *ConcurrencyLimiter) Middleware(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.FullPath()]; ok {
			c.Next()
			return
		}
		if !cl.sem.TryAcquire(1) {
			reject(c, limiterConcurrency, http.StatusServiceUnavailable, "Server is busy, please try again later")
			return
		}
		defer cl.sem.Release(1)
		c.Next()
	}
}

// MiddlewareWithBlock 排队等待空位，超时或客户端断开时返回 503
// 上传路由使用，图片缩放和 PDF 校验都在内存中完成
func (cl *ConcurrencyLimiter) MiddlewareWithBlock(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if err := cl.sem.Acquire(ctx, 1); err != nil {
			reject(c, limiterQueue, http.StatusServiceUnavailable, "Request timed out waiting for server resources")
			return
		}
		defer cl.sem.Release(1)
		c.Next()
	}
}
