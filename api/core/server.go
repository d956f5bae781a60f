package core

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cohortlab/mba-portal/api/middleware"
	"github.com/cohortlab/mba-portal/config"
	"github.com/cohortlab/mba-portal/internal/app"
)

// uploadWaitTimeout 上传排队等待的最长时间
const uploadWaitTimeout = 10 * time.Second

// NewRouterDependencies 从容器组装路由依赖
func NewRouterDependencies(container *app.Container) *RouterDependencies {
	cfg := container.GetConfig()
	services := container.GetServices()
	repos := container.GetRepositories()

	localPath, _ := container.GetStorageFactory().LocalBasePath()

	return &RouterDependencies{
		Config:        cfg,
		ServerVersion: ServerVersion{Version: config.Version, CommitHash: config.CommitHash},

		Database:      container.GetDatabaseFactory().GetProvider(),
		Profiles:      repos.Profiles,
		Storage:       container.GetStorageFactory().GetDefault(),
		LocalBasePath: localPath,
		CacheProvider: container.GetCacheFactory().GetProvider(),
		AI:            container.GetAI(),

		Sessions:  services.Sessions,
		Chat:      services.Chat,
		LinkedIn:  services.LinkedIn,
		Gallery:   services.Gallery,
		Avatars:   services.Avatars,
		Resumes:   services.Resumes,
		Dashboard: services.Dashboard,
	}
}

var probePaths = []string{"/health", "/api/warmup"}

// 启动gin
func setupRouter(deps *RouterDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	router := gin.New()

	// 全局中间件
	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	// 超出部分写入临时文件
	router.MaxMultipartMemory = 8 << 20

	// 并发限制，避免内存过载；健康检查和预热在满载时也必须应答
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 100
	}
	router.Use(middleware.NewConcurrencyLimiter(maxConcurrency).Middleware(probePaths...))

	// 基础监控指标
	router.Use(middleware.Metrics())

	// 速率限制
	deps.AIRateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitAIRPS, cfg.RateLimitAIBurst, cfg.RateLimitExpireTime)
	deps.APIRateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	deps.AISharedLimiter = middleware.NewSharedRateLimiter(cfg.RateLimitAIGlobalRPS, cfg.RateLimitAIGlobalBurst)

	uploadConcurrency := cfg.MaxUploadConcurrency
	if uploadConcurrency <= 0 {
		uploadConcurrency = 8
	}
	deps.UploadConcurrency = middleware.NewConcurrencyLimiter(uploadConcurrency)

	cleanup := func() {
		deps.AIRateLimiter.StopCleanup()
		deps.APIRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, deps)

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *RouterDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
