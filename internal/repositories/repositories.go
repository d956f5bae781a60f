package repositories

import (
	"github.com/cohortlab/mba-portal/database"
	"github.com/cohortlab/mba-portal/database/repo/content"
	"github.com/cohortlab/mba-portal/database/repo/dashboard"
	"github.com/cohortlab/mba-portal/database/repo/gallery"
	"github.com/cohortlab/mba-portal/database/repo/profiles"
)

// Repositories 集中管理所有数据库仓库
type Repositories struct {
	Profiles *profiles.Repository
	Content  *content.Repository
	Gallery  *gallery.Repository
	Stats    *dashboard.Repository
}

// NewRepositories 创建所有仓库实例
func NewRepositories(provider database.Provider) *Repositories {
	db := provider.DB()
	return &Repositories{
		Profiles: profiles.NewRepository(db),
		Content:  content.NewRepository(db),
		Gallery:  gallery.NewRepository(db),
		Stats:    dashboard.NewRepository(db),
	}
}
