package avatar

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

var (
	ErrNotImage      = errors.New("file must be an image")
	ErrTooLarge      = errors.New("file too large")
	ErrUploadFailed  = errors.New("failed to upload image")
	ErrUpdateProfile = errors.New("failed to update profile")
)

// ProfileUpdater 更新头像链接
type ProfileUpdater interface {
	UpdateProfilePicture(ctx context.Context, id, url string) error
}

// Upload 待上传的头像
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Service 头像服务
type Service struct {
	profiles ProfileUpdater
	storage  storage.Provider
	paths    *generator.PathGenerator
	maxBytes int64
	maxDim   int
}

// NewService 创建头像服务
func NewService(profiles ProfileUpdater, provider storage.Provider, maxBytes int64, maxDim int) *Service {
	return &Service{
		profiles: profiles,
		storage:  provider,
		paths:    generator.NewPathGenerator(),
		maxBytes: maxBytes,
		maxDim:   maxDim,
	}
}

// MaxBytes 上传大小上限
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload 校验、缩放并保存头像，然后更新资料
func (s *Service) Upload(ctx context.Context, principal *auth.Principal, in Upload) (string, error) {
	if !utils.IsImageContentType(in.ContentType) {
		return "", ErrNotImage
	}
	if in.Size > s.maxBytes {
		return "", ErrTooLarge
	}

	// 声明的大小可能不准确，按上限读取
	data, err := io.ReadAll(io.LimitReader(in.Reader, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	processed, err := Process(bytes.NewReader(data), s.maxDim)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	key := s.paths.AvatarKey(principal.UserID, processed.Ext)
	obj, err := s.storage.Save(ctx, key, bytes.NewReader(processed.Data), int64(len(processed.Data)), processed.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	if err := s.profiles.UpdateProfilePicture(ctx, principal.UserID, obj.URL); err != nil {
		_ = storage.Compensate(ctx, s.storage, "profile_picture", obj.Key)
		return "", fmt.Errorf("%w: %v", ErrUpdateProfile, err)
	}

	log.Printf("[Avatar] User %s updated profile picture (%dx%d, %d bytes)", principal.UserID, processed.Width, processed.Height, len(processed.Data))
	return obj.URL, nil
}
