package models

import "time"

type Event struct {
	Base
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	EventDate   time.Time `gorm:"index" json:"event_date"`
}

func (Event) TableName() string {
	return "events"
}

// InterviewExperience 面试经验，按点赞数排序作为 AI 上下文
type InterviewExperience struct {
	Base
	Company string `gorm:"index" json:"company"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Upvotes int    `gorm:"default:0;not null;index" json:"upvotes"`
}

func (InterviewExperience) TableName() string {
	return "interview_experiences"
}

type Resource struct {
	Base
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Category    string `gorm:"index" json:"category"`
	URL         string `json:"url"`
}

func (Resource) TableName() string {
	return "resources"
}

type Announcement struct {
	Base
	Title   string `gorm:"not null" json:"title"`
	Content string `json:"content"`
}

func (Announcement) TableName() string {
	return "announcements"
}
