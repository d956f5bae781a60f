package profile

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cohortlab/mba-portal/api/common"
	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/internal/auth"
	"github.com/cohortlab/mba-portal/internal/avatar"
	"github.com/cohortlab/mba-portal/internal/resume"
)

// multipartOverhead 表单字段和边界占用的额外字节
const multipartOverhead = 1 << 20

// ProfileReader 读取成员资料
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	ListAll(ctx context.Context, limit int) ([]*models.Profile, error)
}

// Handler 成员资料处理器
type Handler struct {
	profiles ProfileReader
	avatars  *avatar.Service
	resumes  *resume.Service
}

// NewHandler 创建成员资料处理器
func NewHandler(profiles ProfileReader, avatars *avatar.Service, resumes *resume.Service) *Handler {
	return &Handler{profiles: profiles, avatars: avatars, resumes: resumes}
}

// tooLargeMessage 超出上限时的提示
func tooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File size must be less than %dMB", maxBytes>>20)
}

// formFile 读取 multipart 中的 file 字段，请求体超过 maxBytes 时返回大小错误
func formFile(c *gin.Context, maxBytes int64) (*multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, common.BadRequest(tooLargeMessage(maxBytes))
		}
		return nil, common.BadRequest("No file provided")
	}
	return fileHeader, nil
}

// UploadPicture 上传头像
func (h *Handler) UploadPicture(c *gin.Context, principal *auth.Principal) error {
	fileHeader, err := formFile(c, h.avatars.MaxBytes())
	if err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return common.Internal("Failed to upload image", err)
	}
	defer file.Close()

	url, err := h.avatars.Upload(c.Request.Context(), principal, avatar.Upload{
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	switch {
	case err == nil:
		common.RespondSuccess(c, gin.H{"url": url})
		return nil
	case errors.Is(err, avatar.ErrNotImage):
		return common.BadRequest("File must be an image")
	case errors.Is(err, avatar.ErrTooLarge):
		return common.BadRequest(tooLargeMessage(h.avatars.MaxBytes()))
	case errors.Is(err, avatar.ErrUpdateProfile):
		return common.Internal("Failed to update profile", err)
	default:
		return common.Internal("Failed to upload image", err)
	}
}

// UploadResume 上传简历 PDF
func (h *Handler) UploadResume(c *gin.Context, principal *auth.Principal) error {
	fileHeader, err := formFile(c, h.resumes.MaxBytes())
	if err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return common.Internal("Failed to upload resume", err)
	}
	defer file.Close()

	url, err := h.resumes.Upload(c.Request.Context(), principal, resume.Upload{
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	switch {
	case err == nil:
		common.RespondSuccess(c, gin.H{"url": url})
		return nil
	case errors.Is(err, resume.ErrNotPDF):
		return common.BadRequest("File must be a PDF")
	case errors.Is(err, resume.ErrTooLarge):
		return common.BadRequest(tooLargeMessage(h.resumes.MaxBytes()))
	case errors.Is(err, resume.ErrUpdateProfile):
		return common.Internal("Failed to update profile", err)
	default:
		return common.Internal("Failed to upload resume", err)
	}
}

// Me 当前用户的资料
func (h *Handler) Me(c *gin.Context, principal *auth.Principal) error {
	p, err := h.profiles.GetByID(c.Request.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFound("Profile not found")
		}
		return common.Internal("Failed to load profile", err)
	}
	common.RespondSuccess(c, gin.H{"profile": p})
	return nil
}

// Directory 成员目录
func (h *Handler) Directory(c *gin.Context, _ *auth.Principal) error {
	list, err := h.profiles.ListAll(c.Request.Context(), 0)
	if err != nil {
		return common.Internal("Failed to load members", err)
	}
	if list == nil {
		list = []*models.Profile{}
	}
	common.RespondSuccess(c, gin.H{"members": list})
	return nil
}
