package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cohortlab/mba-portal/config"
)

// Factory 存储工厂，持有进程内唯一的存储提供者
type Factory struct {
	provider Provider
}

// NewFactory 按 storage_type 创建存储提供者
func NewFactory(cfg *config.Config) (*Factory, error) {
	log.Printf("[Storage] Initializing '%s' storage provider...", cfg.StorageType)

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageType, err)
	}

	log.Printf("[Storage] Successfully initialized '%s' storage provider", provider.Name())
	return &Factory{provider: provider}, nil
}

// NewFactoryWithProvider 使用已有提供者创建工厂
func NewFactoryWithProvider(p Provider) *Factory {
	return &Factory{provider: p}
}

func newProvider(cfg *config.Config) (Provider, error) {
	switch cfg.StorageType {
	case "", "local":
		publicBase := cfg.StoragePublicBaseURL
		if publicBase == "" {
			publicBase = cfg.BaseURL() + LocalURLPrefix
		}
		return NewLocalStorage(cfg.StorageLocalPath, publicBase)
	case "minio", "s3":
		return NewMinioStorage(MinioConfig{
			Endpoint:        cfg.StorageMinioEndpoint,
			AccessKeyID:     cfg.StorageMinioAccess,
			SecretAccessKey: cfg.StorageMinioSecret,
			BucketName:      cfg.StorageMinioBucket,
			UseSSL:          cfg.StorageMinioUseSSL,
			PublicBaseURL:   cfg.StoragePublicBaseURL,
		})
	case "gcs":
		return NewGCSStorage(context.Background(), cfg.StorageGCSBucket, cfg.StoragePublicBaseURL)
	case "webdav":
		return NewWebDAVStorage(WebDAVConfig{
			URL:           cfg.StorageWebDAVURL,
			Username:      cfg.StorageWebDAVUser,
			Password:      cfg.StorageWebDAVPass,
			RootPath:      cfg.StorageWebDAVRoot,
			PublicBaseURL: cfg.StoragePublicBaseURL,
			Timeout:       30 * time.Second,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type '%s'", cfg.StorageType)
	}
}

// GetDefault 获取存储提供者
func (f *Factory) GetDefault() Provider {
	return f.provider
}

// LocalBasePath 本地存储时返回磁盘目录，供静态文件路由使用
func (f *Factory) LocalBasePath() (string, bool) {
	if local, ok := f.provider.(*LocalStorage); ok {
		return local.BasePath(), true
	}
	return "", false
}
