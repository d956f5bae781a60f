package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/cohortlab/mba-portal/internal/auth"
	"github.com/cohortlab/mba-portal/storage"
	"github.com/cohortlab/mba-portal/utils"
	"github.com/cohortlab/mba-portal/utils/generator"
)

const contentTypePDF = "application/pdf"

var (
	ErrNotPDF        = errors.New("file must be a PDF")
	ErrTooLarge      = errors.New("file too large")
	ErrUploadFailed  = errors.New("failed to upload resume")
	ErrUpdateProfile = errors.New("failed to update profile")
)

// ProfileUpdater 更新简历链接
type ProfileUpdater interface {
	UpdateResumeURL(ctx context.Context, id, url string) error
}

// Upload 待上传的简历
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Service 简历服务，HTTP 上传与批量命令共用
type Service struct {
	profiles ProfileUpdater
	storage  storage.Provider
	paths    *generator.PathGenerator
	maxBytes int64
}

// NewService 创建简历服务
func NewService(profiles ProfileUpdater, provider storage.Provider, maxBytes int64) *Service {
	return &Service{
		profiles: profiles,
		storage:  provider,
		paths:    generator.NewPathGenerator(),
		maxBytes: maxBytes,
	}
}

// MaxBytes 上传大小上限
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload 处理已登录用户上传的简历
func (s *Service) Upload(ctx context.Context, principal *auth.Principal, in Upload) (string, error) {
	if utils.BaseContentType(in.ContentType) != contentTypePDF {
		return "", ErrNotPDF
	}
	if in.Size > s.maxBytes {
		return "", ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(in.Reader, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	return s.Store(ctx, principal.UserID, data)
}

// Store 校验 PDF 后保存并更新资料，失败时删除已上传的对象
func (s *Service) Store(ctx context.Context, userID string, data []byte) (string, error) {
	if err := Validate(data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	key := s.paths.ResumeKey(userID)
	obj, err := s.storage.Save(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypePDF)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	if err := s.profiles.UpdateResumeURL(ctx, userID, obj.URL); err != nil {
		_ = storage.Compensate(ctx, s.storage, "resume_upload", obj.Key)
		return "", fmt.Errorf("%w: %v", ErrUpdateProfile, err)
	}

	log.Printf("[Resume] Stored resume for user %s (%d bytes)", userID, len(data))
	return obj.URL, nil
}
