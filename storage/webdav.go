package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL           string
	Username      string
	Password      string
	RootPath      string
	PublicBaseURL string
	Timeout       time.Duration
}

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client        *gowebdav.Client
	baseURL       string
	rootPath      string
	publicBaseURL string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := newWebDAVStorage(client, cfg)

	// 验证连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}
	return s, nil
}

func newWebDAVStorage(client *gowebdav.Client, cfg WebDAVConfig) *WebDAVStorage {
	rootPath := strings.Trim(cfg.RootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = baseURL + rootPath
	}

	return &WebDAVStorage{
		client:        client,
		baseURL:       baseURL,
		rootPath:      rootPath,
		publicBaseURL: publicBase,
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(storagePath string) string {
	storagePath = strings.TrimLeft(storagePath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + storagePath
	}
	return "/" + storagePath
}

// do 在独立 goroutine 中执行阻塞的 WebDAV 调用，并响应 ctx 取消
func (s *WebDAVStorage) do(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// ensureParentDir 递归创建父目录
func (s *WebDAVStorage) ensureParentDir(ctx context.Context, fullPath string) error {
	parentDir := path.Dir(fullPath)
	if parentDir == "/" || parentDir == "." {
		return nil
	}

	currentPath := ""
	for _, part := range strings.Split(strings.Trim(parentDir, "/"), "/") {
		if part == "" {
			continue
		}
		currentPath = currentPath + "/" + part

		p := currentPath
		err := s.do(ctx, func() error {
			return s.client.Mkdir(p, os.FileMode(0755))
		})
		if err != nil && !isCollectionExistsError(err) {
			return fmt.Errorf("failed to create directory %s: %w", currentPath, err)
		}
	}
	return nil
}

// isCollectionExistsError 判断是否为目录已存在的错误
func isCollectionExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, s := range []string{"already exists", "conflict", "Conflict", "409", "Method Not Allowed", "405"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// Save 保存文件到 WebDAV
func (s *WebDAVStorage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error) {
	if !IsValidStoragePath(key) {
		return nil, fmt.Errorf("invalid storage path: %s", key)
	}

	fullPath := s.fullPath(key)
	if err := s.ensureParentDir(ctx, fullPath); err != nil {
		return nil, fmt.Errorf("failed to ensure parent directory for %s: %w", key, err)
	}

	err := s.do(ctx, func() error {
		return s.client.WriteStream(fullPath, r, 0644)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", key, err)
	}

	return &Object{
		Key:         key,
		URL:         joinURL(s.publicBaseURL, key),
		Size:        size,
		ContentType: contentType,
	}, nil
}

// Delete 从 WebDAV 删除文件
func (s *WebDAVStorage) Delete(ctx context.Context, key string) error {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	fullPath := s.fullPath(key)
	return s.do(ctx, func() error {
		return s.client.Remove(fullPath)
	})
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath := s.fullPath(key)

	var exists bool
	err := s.do(ctx, func() error {
		_, err := s.client.Stat(fullPath)
		if err == nil {
			exists = true
			return nil
		}
		if gowebdav.IsErrNotFound(err) {
			return nil
		}
		return err
	})
	return exists, err
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	return s.do(ctx, func() error {
		_, err := s.client.ReadDir(root)
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return "webdav"
}
