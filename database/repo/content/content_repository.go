package content

import (
	"context"
	"time"

	"github.com/cohortlab/mba-portal/database/models"
	"gorm.io/gorm"
)

// Repository 只读内容仓库（活动、面经、资源、公告）
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的内容仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// TopInterviews 按点赞数获取面经
func (r *Repository) TopInterviews(ctx context.Context, limit int) ([]*models.InterviewExperience, error) {
	var list []*models.InterviewExperience
	err := r.db.WithContext(ctx).Order("upvotes desc").Order("created_at desc").Limit(limit).Find(&list).Error
	return list, err
}

// RecentResources 获取最新资源
func (r *Repository) RecentResources(ctx context.Context, limit int) ([]*models.Resource, error) {
	var list []*models.Resource
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&list).Error
	return list, err
}

// RecentAnnouncements 获取最新公告
func (r *Repository) RecentAnnouncements(ctx context.Context, limit int) ([]*models.Announcement, error) {
	var list []*models.Announcement
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&list).Error
	return list, err
}

// ListEvents 按活动日期升序获取活动，after 非零时只返回之后的活动
func (r *Repository) ListEvents(ctx context.Context, after time.Time, limit int) ([]*models.Event, error) {
	var list []*models.Event
	db := r.db.WithContext(ctx).Order("event_date asc")
	if !after.IsZero() {
		db = db.Where("event_date >= ?", after)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&list).Error
	return list, err
}
