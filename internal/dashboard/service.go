package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cohortlab/mba-portal/cache"
	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/database/repo/dashboard"
)

var cacheKey = cache.NewKeyBuilder("dashboard").Build("stats")

const (
	trendDays      = 30
	highlightLimit = 3
	defaultLimit   = 20
	maxLimit       = 100
)

// StatsRepository 统计仓库接口
type StatsRepository interface {
	GetOverviewStats(ctx context.Context, now time.Time) (*dashboard.OverviewStats, error)
	GetDailyUploads(ctx context.Context, since time.Time) ([]dashboard.DailyStat, error)
}

// ContentRepository 活动与公告读取接口
type ContentRepository interface {
	ListEvents(ctx context.Context, after time.Time, limit int) ([]*models.Event, error)
	RecentAnnouncements(ctx context.Context, limit int) ([]*models.Announcement, error)
}

// Service Dashboard 统计服务
type Service struct {
	repo     StatsRepository
	content  ContentRepository
	cache    cache.Provider
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService 创建新的 Dashboard 统计服务，cacheTTL 为 0 时不缓存
func NewService(repo StatsRepository, content ContentRepository, cacheProvider cache.Provider, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		content:  content,
		cache:    cacheProvider,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// StatsResponse Dashboard 统计响应
type StatsResponse struct {
	Counts        CountStats             `json:"counts"`
	NextEvents    []*models.Event        `json:"nextEvents"`
	Announcements []*models.Announcement `json:"announcements"`
	Trend         TrendStats             `json:"trend"`
}

// CountStats 数量统计
type CountStats struct {
	Members              int64 `json:"members"`
	UpcomingEvents       int64 `json:"upcomingEvents"`
	GalleryImages        int64 `json:"galleryImages"`
	InterviewExperiences int64 `json:"interviewExperiences"`
	Resources            int64 `json:"resources"`
}

// TrendStats 相册上传趋势
type TrendStats struct {
	Period string   `json:"period"`
	Dates  []string `json:"dates"`
	Data   []int64  `json:"data"`
}

// GetStats 获取 Dashboard 数据，各项查询并发执行
func (s *Service) GetStats(ctx context.Context) (*StatsResponse, error) {
	var cached StatsResponse
	if s.cacheTTL > 0 && s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	now := s.now()
	var (
		overview      *dashboard.OverviewStats
		daily         []dashboard.DailyStat
		events        []*models.Event
		announcements []*models.Announcement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		overview, err = s.repo.GetOverviewStats(gctx, now)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.repo.GetDailyUploads(gctx, startOfDay(now).AddDate(0, 0, -(trendDays-1)))
		return err
	})
	g.Go(func() (err error) {
		events, err = s.content.ListEvents(gctx, now, highlightLimit)
		return err
	})
	g.Go(func() (err error) {
		announcements, err = s.content.RecentAnnouncements(gctx, highlightLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	response := &StatsResponse{
		Counts: CountStats{
			Members:              overview.Members,
			UpcomingEvents:       overview.UpcomingEvents,
			GalleryImages:        overview.GalleryImages,
			InterviewExperiences: overview.Interviews,
			Resources:            overview.Resources,
		},
		NextEvents:    nonNil(events),
		Announcements: nonNil(announcements),
		Trend:         buildTrendData(daily, now, trendDays),
	}

	if s.cacheTTL > 0 && s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, response, s.cacheTTL)
	}
	return response, nil
}

// RefreshCache 刷新统计数据缓存
func (s *Service) RefreshCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cacheKey)
}

// Events 活动列表，upcoming 为 true 时只返回未开始的活动
func (s *Service) Events(ctx context.Context, upcoming bool, limit int) ([]*models.Event, error) {
	var after time.Time
	if upcoming {
		after = s.now()
	}
	events, err := s.content.ListEvents(ctx, after, clampLimit(limit))
	return nonNil(events), err
}

// Announcements 最新公告
func (s *Service) Announcements(ctx context.Context, limit int) ([]*models.Announcement, error) {
	list, err := s.content.RecentAnnouncements(ctx, clampLimit(limit))
	return nonNil(list), err
}

// buildTrendData 构建趋势数据，没有数据的天数补 0
func buildTrendData(stats []dashboard.DailyStat, now time.Time, days int) TrendStats {
	dates := make([]string, days)
	data := make([]int64, days)

	statMap := make(map[string]int64, len(stats))
	for _, stat := range stats {
		statMap[stat.Date] = stat.Count
	}

	for i := 0; i < days; i++ {
		date := now.UTC().AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02")
		dates[i] = date
		data[i] = statMap[date]
	}

	return TrendStats{Period: "30d", Dates: dates, Data: data}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
