package gallery

import (
	"context"

	"github.com/cohortlab/mba-portal/database/models"
	"gorm.io/gorm"
)

// Repository 相册图片仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的相册图片仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AlbumCount 相册名及其图片数量
type AlbumCount struct {
	AlbumName string `json:"album_name"`
	Count     int64  `json:"count"`
}

// Create 保存图片记录
func (r *Repository) Create(ctx context.Context, image *models.GalleryImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// GetByID 通过ID获取图片
func (r *Repository) GetByID(ctx context.Context, id string) (*models.GalleryImage, error) {
	var image models.GalleryImage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error
	return &image, err
}

// DeleteByID 删除图片记录，未命中时返回 gorm.ErrRecordNotFound
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.GalleryImage{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 获取图片列表，album 为空时返回全部
func (r *Repository) List(ctx context.Context, album string, limit, offset int) ([]*models.GalleryImage, int64, error) {
	var images []*models.GalleryImage
	var total int64

	db := r.db.WithContext(ctx).Model(&models.GalleryImage{})
	if album != "" {
		db = db.Where("album_name = ?", album)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&images).Error
	return images, total, err
}

// ListAlbums 按图片数量列出相册
func (r *Repository) ListAlbums(ctx context.Context) ([]AlbumCount, error) {
	var albums []AlbumCount
	err := r.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Select("album_name, COUNT(*) as count").
		Group("album_name").
		Order("count desc").
		Scan(&albums).Error
	return albums, err
}

// Count 统计图片数量
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GalleryImage{}).Count(&count).Error
	return count, err
}
