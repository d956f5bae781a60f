package app

import (
	"context"
	"fmt"
	"log"

	"github.com/cohortlab/mba-portal/cache"
	"github.com/cohortlab/mba-portal/config"
	"github.com/cohortlab/mba-portal/database"
	"github.com/cohortlab/mba-portal/internal/auth"
	"github.com/cohortlab/mba-portal/internal/avatar"
	"github.com/cohortlab/mba-portal/internal/batch"
	"github.com/cohortlab/mba-portal/internal/chat"
	"github.com/cohortlab/mba-portal/internal/dashboard"
	"github.com/cohortlab/mba-portal/internal/gallery"
	"github.com/cohortlab/mba-portal/internal/linkedin"
	"github.com/cohortlab/mba-portal/internal/llm"
	"github.com/cohortlab/mba-portal/internal/repositories"
	"github.com/cohortlab/mba-portal/internal/resume"
	"github.com/cohortlab/mba-portal/storage"
)

// Services 领域服务
type Services struct {
	Sessions  *auth.SessionResolver
	Chat      *chat.Service
	LinkedIn  *linkedin.Service
	Gallery   *gallery.Service
	Avatars   *avatar.Service
	Resumes   *resume.Service
	Dashboard *dashboard.Service
}

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	storageFactory  *storage.Factory
	cacheFactory    *cache.Factory
	repositories    *repositories.Repositories
	ai              llm.Generator
	services        *Services
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 初始化所有服务
func (c *Container) Init(ctx context.Context) error {
	log.Println("Initializing DI container...")

	if err := c.InitDatabase(); err != nil {
		return err
	}

	// 初始化存储工厂
	if err := c.initStorageFactory(); err != nil {
		return fmt.Errorf("failed to initialize storage factory: %w", err)
	}

	// 初始化缓存工厂
	if err := c.initCacheFactory(); err != nil {
		return fmt.Errorf("failed to initialize cache factory: %w", err)
	}

	// 初始化 AI 客户端
	if err := c.initAI(ctx); err != nil {
		return fmt.Errorf("failed to initialize ai client: %w", err)
	}

	c.initServices()

	log.Println("DI container initialized successfully")
	return nil
}

// InitDatabase 只初始化数据库与仓库，迁移命令使用
func (c *Container) InitDatabase() error {
	if c.databaseFactory != nil {
		return nil
	}
	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory
	c.repositories = repositories.NewRepositories(factory.GetProvider())
	log.Println("Database factory initialized")
	return nil
}

// initStorageFactory 初始化存储工厂
func (c *Container) initStorageFactory() error {
	factory, err := storage.NewFactory(c.config)
	if err != nil {
		return err
	}
	c.storageFactory = factory
	log.Printf("Storage factory initialized (%s)", factory.GetDefault().Name())
	return nil
}

// initCacheFactory 初始化缓存工厂
func (c *Container) initCacheFactory() error {
	factory, err := cache.NewFactory(c.config)
	if err != nil {
		return err
	}
	c.cacheFactory = factory
	log.Printf("Cache factory initialized (%s)", factory.GetProvider().Name())
	return nil
}

// initAI 初始化文本生成客户端，未配置密钥时依然返回客户端
func (c *Container) initAI(ctx context.Context) error {
	ai, err := llm.New(ctx, c.config)
	if err != nil {
		return err
	}
	c.ai = ai
	if !ai.Configured() {
		log.Printf("[AI] No API key configured for provider '%s', AI routes will return errors", ai.Name())
	}
	return nil
}

// initServices 组装领域服务
func (c *Container) initServices() {
	cfg := c.config
	repos := c.repositories
	provider := c.storageFactory.GetDefault()
	cacheProvider := c.cacheFactory.GetProvider()

	c.services = &Services{
		Sessions:  auth.NewSessionResolver(cfg.AuthJWTSecret, cfg.AuthSessionCookie, repos.Profiles),
		Chat:      chat.NewService(repos.Content, c.ai, cacheProvider, cfg.ChatContextCacheTTL),
		LinkedIn:  linkedin.NewService(c.ai),
		Gallery:   gallery.NewService(repos.Gallery, provider, config.MaxBytes(cfg.UploadGalleryMaxMB, 10)),
		Avatars:   avatar.NewService(repos.Profiles, provider, config.MaxBytes(cfg.UploadAvatarMaxMB, 5), cfg.AvatarMaxDimension),
		Resumes:   resume.NewService(repos.Profiles, provider, config.MaxBytes(cfg.UploadResumeMaxMB, 10)),
		Dashboard: dashboard.NewService(repos.Stats, repos.Content, cacheProvider, cfg.DashboardCacheTTL),
	}
}

// NewBatchRunner 创建批处理执行器
func (c *Container) NewBatchRunner() *batch.Runner {
	return batch.NewRunner(c.repositories.Profiles, c.services.Resumes, c.services.LinkedIn, nil)
}

// GetServices 获取领域服务
func (c *Container) GetServices() *Services {
	return c.services
}

// GetRepositories 获取所有仓库
func (c *Container) GetRepositories() *repositories.Repositories {
	return c.repositories
}

// GetAI 获取文本生成客户端
func (c *Container) GetAI() llm.Generator {
	return c.ai
}

// GetDatabaseFactory 获取数据库工厂
func (c *Container) GetDatabaseFactory() *database.Factory {
	return c.databaseFactory
}

// GetStorageFactory 获取存储工厂
func (c *Container) GetStorageFactory() *storage.Factory {
	return c.storageFactory
}

// GetCacheFactory 获取缓存工厂
func (c *Container) GetCacheFactory() *cache.Factory {
	return c.cacheFactory
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// Close 关闭所有服务
func (c *Container) Close() error {
	log.Println("Closing DI container...")

	if c.cacheFactory != nil {
		if err := c.cacheFactory.Close(); err != nil {
			log.Printf("Error closing cache factory: %v", err)
		}
	}

	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			log.Printf("Error closing database factory: %v", err)
		}
	}

	log.Println("DI container closed")
	return nil
}
