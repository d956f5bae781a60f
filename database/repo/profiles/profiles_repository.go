package profiles

import (
	"context"

	"github.com/cohortlab/mba-portal/database/models"
	"gorm.io/gorm"
)

// Repository 成员资料仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的成员资料仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID 通过用户ID获取资料
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	return &profile, err
}

// ListAll 按姓名顺序列出资料，limit <= 0 表示不限制
func (r *Repository) ListAll(ctx context.Context, limit int) ([]*models.Profile, error) {
	var list []*models.Profile
	db := r.db.WithContext(ctx).Order("name asc")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&list).Error
	return list, err
}

// UpdateFields 按列更新资料，未命中记录时返回 gorm.ErrRecordNotFound
func (r *Repository) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProfilePicture 更新头像链接
func (r *Repository) UpdateProfilePicture(ctx context.Context, id, url string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"profile_picture": url})
}

// UpdateResumeURL 更新简历链接
func (r *Repository) UpdateResumeURL(ctx context.Context, id, url string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"resume_url": url})
}

// Probe 最小化读取，用于连通性检查
func (r *Repository) Probe(ctx context.Context) error {
	var ids []string
	return r.db.WithContext(ctx).Model(&models.Profile{}).Limit(1).Pluck("id", &ids).Error
}

// Count 统计成员数量
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&count).Error
	return count, err
}
