package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cohortlab/mba-portal/api/common"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portal_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})

	httpRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_rejected_total",
		Help: "Requests turned away by a rate or concurrency limiter.",
	}, []string{"limiter"})
)

// 限流器标签
const (
	limiterIP          = "ip_rate"
	limiterAIShared    = "ai_shared"
	limiterConcurrency = "concurrency"
	limiterQueue       = "upload_queue"
)

func reject(c *gin.Context, limiter string, status int, message string) {
	httpRejected.WithLabelValues(limiter).Inc()
	common.RespondErrorAbort(c, status, message)
}

// Metrics 请求计数与耗时
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		// 未匹配路由统一归为 unmatched，避免标签基数膨胀
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		httpRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, method).Observe(time.Since(startTime).Seconds())
	}
}
