package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cohortlab/mba-portal/cache"
	"github.com/cohortlab/mba-portal/config"
	"github.com/cohortlab/mba-portal/storage"
)

const warmupTimeout = 5 * time.Second

var (
	startTime         = time.Now()
	errNotInitialized = errors.New("database not initialized")
)

// Pinger 数据库连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober 对数据库做一次最小化读取
type Prober interface {
	Probe(ctx context.Context) error
}

// AIStatus 判断 AI 是否已配置
type AIStatus interface {
	Configured() bool
}

// HealthHandler 健康检查与预热
type HealthHandler struct {
	db      Pinger
	probe   Prober
	storage storage.Provider
	cache   cache.Provider
	ai      AIStatus
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db Pinger, probe Prober, provider storage.Provider, cacheProvider cache.Provider, ai AIStatus) *HealthHandler {
	return &HealthHandler{db: db, probe: probe, storage: provider, cache: cacheProvider, ai: ai}
}

// Health 检查数据库、存储和缓存，任一失败返回 503
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), warmupTimeout)
	defer cancel()

	checks := gin.H{
		"database": checkDatabaseHealth(ctx, h.db),
		"cache":    checkCacheHealth(ctx, h.cache),
		"storage":  checkStorageHealth(ctx, h.storage),
	}

	status, httpStatus := "ok", http.StatusOK
	for _, checkResult := range checks {
		if result, ok := checkResult.(string); ok && result != "ok" {
			status, httpStatus = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

// Warmup 执行一次最小查询预热数据库连接，无论结果如何都返回 200
// GET /api/warmup
func (h *HealthHandler) Warmup(c *gin.Context) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.Request.Context(), warmupTimeout)
	defer cancel()

	status, database := "ok", "connected"
	if err := h.runProbe(ctx); err != nil {
		log.Printf("[Warmup] Database probe failed: %v", err)
		status, database = "partial", "error"
	}

	ai := "not_configured"
	if h.ai != nil && h.ai.Configured() {
		ai = "configured"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"database":       database,
		"ai":             ai,
		"responseTimeMs": time.Since(start).Milliseconds(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// WarmupHead 轻量存活探测，不做任何查询
// HEAD /api/warmup
func (h *HealthHandler) WarmupHead(c *gin.Context) {
	c.Status(http.StatusOK)
}

// runProbe 查询异常时也不让 panic 影响响应
func (h *HealthHandler) runProbe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	if h.probe == nil {
		return errNotInitialized
	}
	return h.probe.Probe(ctx)
}

func checkDatabaseHealth(ctx context.Context, db Pinger) string {
	if db == nil {
		return "not initialized"
	}
	if err := db.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(ctx context.Context, provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if _, err := provider.Exists(ctx, "health:probe"); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "error: no default storage provider"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
