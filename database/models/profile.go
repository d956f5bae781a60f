package models

import "time"

// Profile 成员资料，ID 与认证服务中的用户 ID 一致
type Profile struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"index" json:"name"`
	Email          string    `gorm:"uniqueIndex" json:"email"`
	ProfilePicture string    `json:"profile_picture"`
	IsAdmin        bool      `gorm:"default:false;not null" json:"is_admin"`
	Company        string    `json:"company"`
	Bio            string    `json:"bio"`
	Domain         string    `json:"domain"`
	Specialization string    `json:"specialization"`
	LinkedinURL    string    `gorm:"column:linkedin_url" json:"linkedin_url"`
	ResumeURL      string    `gorm:"column:resume_url" json:"resume_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
