package cache

import (
	"fmt"
	"log"

	"github.com/cohortlab/mba-portal/cache/memory"
	"github.com/cohortlab/mba-portal/cache/redis"
	"github.com/cohortlab/mba-portal/config"
)

// Factory 缓存工厂，持有进程内唯一的缓存提供者
type Factory struct {
	provider Provider
}

// NewFactory 按 cache_type 创建缓存提供者
// redis 不可用时回退到内存缓存，缓存只是加速层，不影响正确性
func NewFactory(cfg *config.Config) (*Factory, error) {
	if cfg.CacheType == "redis" {
		provider, err := redis.NewRedisFromConfig(&redis.Config{
			Address:      cfg.CacheRedisAddr,
			Password:     cfg.CacheRedisPassword,
			DB:           cfg.CacheRedisDB,
			PoolSize:     10,
			MinIdleConns: 2,
		})
		if err == nil {
			log.Printf("[CacheFactory] Using redis cache at %s", cfg.CacheRedisAddr)
			return &Factory{provider: provider}, nil
		}
		log.Printf("[CacheFactory] Redis unavailable (%v), falling back to memory cache", err)
	}

	provider, err := memory.NewMemory(memory.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	log.Println("[CacheFactory] Using memory cache")
	return &Factory{provider: provider}, nil
}

// NewFactoryWithProvider 使用已有提供者创建工厂
func NewFactoryWithProvider(p Provider) *Factory {
	return &Factory{provider: p}
}

// GetProvider 获取缓存提供者
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// Close 关闭缓存提供者
func (f *Factory) Close() error {
	if f.provider == nil {
		return nil
	}
	return f.provider.Close()
}
