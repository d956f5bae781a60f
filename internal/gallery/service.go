package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/cohortlab/mba-portal/database/models"
	galleryRepo "github.com/cohortlab/mba-portal/database/repo/gallery"
	"github.com/cohortlab/mba-portal/internal/auth"
	"github.com/cohortlab/mba-portal/storage"
	"github.com/cohortlab/mba-portal/utils"
	"github.com/cohortlab/mba-portal/utils/generator"
)

var (
	ErrNotImage  = errors.New("file must be an image")
	ErrTooLarge  = errors.New("file too large")
	ErrMissingID = errors.New("image id is required")
	ErrNotFound  = errors.New("image not found")
	ErrForbidden = errors.New("not authorized to delete this image")

	ErrUploadFailed = errors.New("failed to upload image")
	ErrSaveFailed   = errors.New("failed to save image")
)

const maxListLimit = 100

// safeExtension 只根据探测到的类型决定扩展名
func safeExtension(contentType string) string {
	ext := utils.GetSafeExtension(contentType)
	if ext == "" {
		return ".bin"
	}
	return ext
}

// Repository 相册图片仓库接口
type Repository interface {
	Create(ctx context.Context, image *models.GalleryImage) error
	GetByID(ctx context.Context, id string) (*models.GalleryImage, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context, album string, limit, offset int) ([]*models.GalleryImage, int64, error)
	ListAlbums(ctx context.Context) ([]galleryRepo.AlbumCount, error)
}

// Upload 待上传的文件
type Upload struct {
	Reader      io.ReadSeeker
	Size        int64
	ContentType string
	Album       string
	Caption     string
}

// Service 相册服务
type Service struct {
	repo     Repository
	storage  storage.Provider
	paths    *generator.PathGenerator
	maxBytes int64
}

// NewService 创建相册服务
func NewService(repo Repository, provider storage.Provider, maxBytes int64) *Service {
	return &Service{
		repo:     repo,
		storage:  provider,
		paths:    generator.NewPathGenerator(),
		maxBytes: maxBytes,
	}
}

// MaxBytes 上传大小上限
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload 先写对象存储再写数据库，数据库失败时删除已上传的对象
func (s *Service) Upload(ctx context.Context, principal *auth.Principal, in Upload) (*models.GalleryImage, error) {
	if !utils.IsImageContentType(in.ContentType) {
		return nil, ErrNotImage
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, ErrTooLarge
	}

	// 以文件头为准，客户端声明的类型和文件名都不可信
	sniffed, err := utils.SniffContentType(in.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if !utils.IsImageContentType(sniffed) {
		return nil, ErrNotImage
	}

	album := strings.TrimSpace(in.Album)
	if album == "" {
		album = generator.DefaultAlbum
	}

	key := s.paths.GalleryKey(album, safeExtension(sniffed))

	obj, err := s.storage.Save(ctx, key, in.Reader, in.Size, utils.BaseContentType(sniffed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	image := &models.GalleryImage{
		AlbumName:  album,
		ImageURL:   obj.URL,
		Caption:    strings.TrimSpace(in.Caption),
		UploadedBy: principal.UserID,
		PublicID:   obj.Key,
	}
	if err := s.repo.Create(ctx, image); err != nil {
		_ = storage.Compensate(ctx, s.storage, "gallery_upload", obj.Key)
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	log.Printf("[Gallery] User %s uploaded %s to album '%s'", principal.UserID, obj.Key, utils.SanitizeLogField(album))
	return image, nil
}

// Delete 删除图片，只有上传者或管理员可以删除
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, imageID, publicID string) error {
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return ErrMissingID
	}

	image, err := s.repo.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load gallery image: %w", err)
	}

	if !principal.CanModify(image.UploadedBy) {
		return ErrForbidden
	}

	key := image.PublicID
	if key == "" {
		// 旧记录没有 public_id 时，只接受与记录 URL 对应的 key
		if candidate := strings.TrimSpace(publicID); candidate != "" && strings.HasSuffix(image.ImageURL, "/"+candidate) {
			key = candidate
		} else if candidate != "" {
			log.Printf("[Gallery] Ignoring publicId %s that does not match image %s", utils.SanitizeLogField(candidate), imageID)
		}
	}
	if key != "" {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Printf("[Gallery] Failed to delete object %s for image %s: %v", utils.SanitizeLogField(key), imageID, err)
		}
	}

	if err := s.repo.DeleteByID(ctx, imageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete gallery image: %w", err)
	}

	log.Printf("[Gallery] User %s deleted image %s", principal.UserID, imageID)
	return nil
}

// List 列出图片
func (s *Service) List(ctx context.Context, album string, limit, offset int) ([]*models.GalleryImage, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, strings.TrimSpace(album), limit, offset)
}

// Albums 列出相册及图片数量
func (s *Service) Albums(ctx context.Context) ([]galleryRepo.AlbumCount, error) {
	return s.repo.ListAlbums(ctx)
}
