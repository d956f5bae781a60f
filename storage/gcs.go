package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcsapi "google.golang.org/api/storage/v1"
)

const gcsPublicHost = "https://storage.googleapis.com"

// gcsCheckTimeout 启动时检查桶的超时
var gcsCheckTimeout = 10 * time.Second

// GCSStorage Google Cloud Storage 实现
type GCSStorage struct {
	bucketName    string
	publicBaseURL string
	service       *gcsapi.Service
}

// NewGCSStorage 创建 GCS 存储提供者，凭据来自运行环境的默认凭据
// ctx 会绑定到凭据刷新，必须与提供者同寿命
func NewGCSStorage(ctx context.Context, bucketName, publicBaseURL string, opts ...option.ClientOption) (*GCSStorage, error) {
	bucket := strings.TrimSpace(bucketName)
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	service, err := gcsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs service: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, gcsCheckTimeout)
	defer cancel()
	if _, err := service.Buckets.Get(bucket).Context(checkCtx).Do(); err != nil {
		return nil, fmt.Errorf("read gcs bucket attrs: %w", err)
	}

	if publicBaseURL == "" {
		publicBaseURL = gcsPublicHost + "/" + bucket
	}

	return &GCSStorage{bucketName: bucket, publicBaseURL: publicBaseURL, service: service}, nil
}

// Save 写入 GCS 对象
func (s *GCSStorage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error) {
	if !IsValidStoragePath(key) {
		return nil, fmt.Errorf("invalid storage path: %s", key)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	object := &gcsapi.Object{Name: key, ContentType: contentType}
	written, err := s.service.Objects.Insert(s.bucketName, object).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("write gcs object %q: %w", key, err)
	}

	return &Object{
		Key:         key,
		URL:         joinURL(s.publicBaseURL, key),
		Size:        int64(written.Size),
		ContentType: contentType,
	}, nil
}

// Delete 删除 GCS 对象
func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	err := s.service.Objects.Delete(s.bucketName, key).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if isGCSNotFound(err) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return fmt.Errorf("delete gcs object %q: %w", key, err)
}

// Exists 检查对象是否存在
func (s *GCSStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.service.Objects.Get(s.bucketName, key).Context(ctx).Do()
	if err == nil {
		return true, nil
	}
	if isGCSNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("read gcs object %q: %w", key, err)
}

// Health 检查桶是否可访问
func (s *GCSStorage) Health(ctx context.Context) error {
	_, err := s.service.Buckets.Get(s.bucketName).Context(ctx).Do()
	return err
}

// Name 返回存储名称
func (s *GCSStorage) Name() string {
	return "gcs"
}

func isGCSNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
