package core

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cohortlab/mba-portal/api/common"
	handlerChat "github.com/cohortlab/mba-portal/api/handler/chat"
	handlerCohort "github.com/cohortlab/mba-portal/api/handler/cohort"
	handlerGallery "github.com/cohortlab/mba-portal/api/handler/gallery"
	handlerProfile "github.com/cohortlab/mba-portal/api/handler/profile"
	"github.com/cohortlab/mba-portal/api/middleware"
	"github.com/cohortlab/mba-portal/cache"
	"github.com/cohortlab/mba-portal/config"
	"github.com/cohortlab/mba-portal/database/repo/profiles"
	"github.com/cohortlab/mba-portal/internal/avatar"
	"github.com/cohortlab/mba-portal/internal/chat"
	"github.com/cohortlab/mba-portal/internal/dashboard"
	"github.com/cohortlab/mba-portal/internal/gallery"
	"github.com/cohortlab/mba-portal/internal/linkedin"
	"github.com/cohortlab/mba-portal/internal/resume"
	"github.com/cohortlab/mba-portal/storage"
)

// ServerVersion 版本信息
type ServerVersion struct {
	Version    string
	CommitHash string
}

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Config        *config.Config
	ServerVersion ServerVersion

	Database      Pinger
	Profiles      *profiles.Repository
	Storage       storage.Provider
	LocalBasePath string // 本地存储时用于静态文件服务，其他存储为空
	CacheProvider cache.Provider
	AI            AIStatus

	Sessions  middleware.SessionResolver
	Chat      *chat.Service
	LinkedIn  *linkedin.Service
	Gallery   *gallery.Service
	Avatars   *avatar.Service
	Resumes   *resume.Service
	Dashboard *dashboard.Service

	AIRateLimiter     *middleware.IPRateLimiter
	AISharedLimiter   *middleware.SharedRateLimiter
	APIRateLimiter    *middleware.IPRateLimiter
	UploadConcurrency *middleware.ConcurrencyLimiter
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	// 基础路由
	registerBasicRoutes(router, deps)

	// API 路由
	registerAPIRoutes(router, deps)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.Database, deps.Profiles, deps.Storage, deps.CacheProvider, deps.AI)
	router.GET("/health", healthHandler.Health)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": deps.ServerVersion.Version,
			"commit":  deps.ServerVersion.CommitHash,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.LocalBasePath != "" {
		router.Static(storage.LocalURLPrefix, deps.LocalBasePath)
	}
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.Database, deps.Profiles, deps.Storage, deps.CacheProvider, deps.AI)
	chatHandler := handlerChat.NewHandler(deps.Chat, deps.LinkedIn)
	galleryHandler := handlerGallery.NewHandler(deps.Gallery)
	profileHandler := handlerProfile.NewHandler(deps.Profiles, deps.Avatars, deps.Resumes)
	cohortHandler := handlerCohort.NewHandler(deps.Dashboard, deps.Chat)

	authed := func(fn middleware.AuthenticatedFunc) gin.HandlerFunc {
		return middleware.Authenticated(deps.Sessions, fn)
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		apiGroup.GET("/warmup", healthHandler.Warmup)
		apiGroup.HEAD("/warmup", healthHandler.WarmupHead)

		// AI 路由：按 IP 限流，并限制整体调用量
		aiGroup := apiGroup.Group("")
		aiGroup.Use(deps.AIRateLimiter.Middleware(), deps.AISharedLimiter.Middleware())
		{
			aiGroup.POST("/chat", common.Wrap(chatHandler.Chat))
			aiGroup.POST("/parse-linkedin", common.Wrap(chatHandler.ParseLinkedIn))
		}

		memberGroup := apiGroup.Group("")
		memberGroup.Use(deps.APIRateLimiter.Middleware())
		{
			// 先校验会话再排队，未登录请求不占用上传名额
			session := middleware.RequireSession(deps.Sessions)
			uploads := deps.UploadConcurrency.MiddlewareWithBlock(uploadWaitTimeout)

			// gallery
			memberGroup.GET("/gallery", authed(galleryHandler.List))
			memberGroup.GET("/gallery/albums", authed(galleryHandler.Albums))
			memberGroup.POST("/gallery/upload", session, uploads, authed(galleryHandler.Upload))
			memberGroup.DELETE("/gallery/delete", authed(galleryHandler.Delete))

			// profile
			memberGroup.GET("/profile", authed(profileHandler.Me))
			memberGroup.GET("/members", authed(profileHandler.Directory))
			memberGroup.POST("/upload-profile-picture", session, uploads, authed(profileHandler.UploadPicture))
			memberGroup.POST("/upload-resume", session, uploads, authed(profileHandler.UploadResume))

			// cohort
			memberGroup.GET("/dashboard", authed(cohortHandler.GetStats))
			memberGroup.GET("/events", authed(cohortHandler.ListEvents))
			memberGroup.GET("/announcements", authed(cohortHandler.ListAnnouncements))
		}

		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(deps.APIRateLimiter.Middleware())
		adminGroup.Use(middleware.RequireSession(deps.Sessions))
		adminGroup.Use(middleware.RequireAdmin())
		{
			adminGroup.POST("/cache/refresh", authed(cohortHandler.RefreshCaches))
		}
	}
}
