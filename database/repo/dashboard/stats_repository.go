package dashboard

import (
	"context"
	"time"

	"github.com/cohortlab/mba-portal/database/models"
	"gorm.io/gorm"
)

// Repository Dashboard 统计仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的 Dashboard 统计仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OverviewStats 概览统计
type OverviewStats struct {
	Members        int64
	UpcomingEvents int64
	GalleryImages  int64
	Interviews     int64
	Resources      int64
}

// GetOverviewStats 获取概览统计，now 之后的活动计为即将举行
func (r *Repository) GetOverviewStats(ctx context.Context, now time.Time) (*OverviewStats, error) {
	var result OverviewStats
	db := r.db.WithContext(ctx)

	counts := []struct {
		model interface{}
		query func(*gorm.DB) *gorm.DB
		dest  *int64
	}{
		{&models.Profile{}, nil, &result.Members},
		{&models.Event{}, func(tx *gorm.DB) *gorm.DB { return tx.Where("event_date >= ?", now) }, &result.UpcomingEvents},
		{&models.GalleryImage{}, nil, &result.GalleryImages},
		{&models.InterviewExperience{}, nil, &result.Interviews},
		{&models.Resource{}, nil, &result.Resources},
	}

	for _, c := range counts {
		tx := db.Model(c.model)
		if c.query != nil {
			tx = c.query(tx)
		}
		if err := tx.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	return &result, nil
}

// DailyStat 每日统计
type DailyStat struct {
	Date  string
	Count int64
}

// GetDailyUploads 获取 since 之后相册每日上传数量，按日期升序
func (r *Repository) GetDailyUploads(ctx context.Context, since time.Time) ([]DailyStat, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Where("created_at >= ?", since).
		Order("created_at asc").
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}

	// 按 UTC 日期分组，不依赖各数据库的日期函数
	var stats []DailyStat
	for _, t := range times {
		date := t.UTC().Format("2006-01-02")
		if n := len(stats); n > 0 && stats[n-1].Date == date {
			stats[n-1].Count++
			continue
		}
		stats = append(stats, DailyStat{Date: date, Count: 1})
	}
	return stats, nil
}
