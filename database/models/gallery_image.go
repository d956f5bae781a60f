package models

// GalleryImage 相册图片，PublicID 为对象存储中的键
type GalleryImage struct {
	Base
	AlbumName  string `gorm:"index;not null" json:"album_name"`
	ImageURL   string `gorm:"not null" json:"image_url"`
	Caption    string `json:"caption"`
	UploadedBy string `gorm:"type:uuid;index;not null" json:"uploaded_by"`
	PublicID   string `json:"public_id"`
}

func (GalleryImage) TableName() string {
	return "gallery_images"
}

// OwnedBy 判断图片是否由指定用户上传
func (g *GalleryImage) OwnedBy(userID string) bool {
	return userID != "" && g.UploadedBy == userID
}
