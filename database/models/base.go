package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base 托管数据库中各表共用的主键与创建时间
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate 未指定主键时生成 UUID
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All 返回需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Event{},
		&InterviewExperience{},
		&Resource{},
		&Announcement{},
		&GalleryImage{},
	}
}
