package generator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// DefaultAlbum 未指定相册时使用的名称
const DefaultAlbum = "General"

// PathGenerator 对象存储键生成器
type PathGenerator struct {
	newID func() string
}

// NewPathGenerator 创建路径生成器
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{newID: uuid.NewString}
}

// GalleryKey 相册图片键：gallery/<album>/<uuid><ext>
func (pg *PathGenerator) GalleryKey(album, ext string) string {
	return fmt.Sprintf("gallery/%s/%s%s", pg.segment(album, DefaultAlbum), pg.newID(), ext)
}

// AvatarKey 头像键：avatars/<user>/<uuid><ext>
func (pg *PathGenerator) AvatarKey(userID, ext string) string {
	return fmt.Sprintf("avatars/%s/%s%s", pg.segment(userID, "unknown"), pg.newID(), ext)
}

// ResumeKey 简历键：resumes/<user>/<uuid>.pdf
func (pg *PathGenerator) ResumeKey(userID string) string {
	return fmt.Sprintf("resumes/%s/%s.pdf", pg.segment(userID, "unknown"), pg.newID())
}

func (pg *PathGenerator) segment(s, fallback string) string {
	if slug := Slugify(s); slug != "" {
		return slug
	}
	return fallback
}

// Slugify 转换为只包含字母、数字、- 和 _ 的路径片段
func Slugify(s string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '_':
			sb.WriteRune(r)
			lastDash = false
		case !lastDash && sb.Len() > 0:
			sb.WriteRune('-')
			lastDash = true
		}
	}
	return strings.TrimRight(sb.String(), "-")
}
