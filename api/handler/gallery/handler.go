package gallery

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cohortlab/mba-portal/api/common"
	"github.com/cohortlab/mba-portal/database/models"
	galleryRepo "github.com/cohortlab/mba-portal/database/repo/gallery"
	"github.com/cohortlab/mba-portal/internal/auth"
	gallerySvc "github.com/cohortlab/mba-portal/internal/gallery"
)

const multipartOverhead = 1 << 20

// Handler 相册处理器
type Handler struct {
	svc *gallerySvc.Service
}

// NewHandler 创建新的相册处理器
func NewHandler(svc *gallerySvc.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) tooLarge() *common.Error {
	return common.BadRequest(fmt.Sprintf("File size must be less than %dMB", h.svc.MaxBytes()>>20))
}

// Upload 上传图片到相册
func (h *Handler) Upload(c *gin.Context, principal *auth.Principal) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.MaxBytes()+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return h.tooLarge()
		}
		return common.BadRequest("No file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return common.Internal("Failed to upload image", err)
	}
	defer file.Close()

	image, err := h.svc.Upload(c.Request.Context(), principal, gallerySvc.Upload{
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Album:       c.PostForm("album"),
		Caption:     c.PostForm("caption"),
	})
	switch {
	case err == nil:
		common.RespondSuccess(c, gin.H{"image": image})
		return nil
	case errors.Is(err, gallerySvc.ErrNotImage):
		return common.BadRequest("File must be an image")
	case errors.Is(err, gallerySvc.ErrTooLarge):
		return h.tooLarge()
	case errors.Is(err, gallerySvc.ErrSaveFailed):
		return common.Internal("Failed to save image", err)
	default:
		return common.Internal("Failed to upload image", err)
	}
}

type deleteRequest struct {
	ImageID  string `json:"imageId"`
	PublicID string `json:"publicId"`
}

// Delete 删除图片，仅上传者或管理员
func (h *Handler) Delete(c *gin.Context, principal *auth.Principal) error {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return common.BadRequest("Image ID is required")
	}

	err := h.svc.Delete(c.Request.Context(), principal, req.ImageID, req.PublicID)
	switch {
	case err == nil:
		common.RespondSuccess(c, nil)
		return nil
	case errors.Is(err, gallerySvc.ErrMissingID):
		return common.BadRequest("Image ID is required")
	case errors.Is(err, gallerySvc.ErrNotFound):
		return common.NotFound("Image not found")
	case errors.Is(err, gallerySvc.ErrForbidden):
		return common.Forbidden("Not authorized to delete this image")
	default:
		return common.Internal("Failed to delete image", err)
	}
}

// List 列出图片，可按相册过滤
func (h *Handler) List(c *gin.Context, _ *auth.Principal) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	images, total, err := h.svc.List(c.Request.Context(), c.Query("album"), limit, offset)
	if err != nil {
		return common.Internal("Failed to load images", err)
	}
	if images == nil {
		images = []*models.GalleryImage{}
	}
	common.RespondSuccess(c, gin.H{"images": images, "total": total})
	return nil
}

// Albums 列出相册名称与图片数量
func (h *Handler) Albums(c *gin.Context, _ *auth.Principal) error {
	albums, err := h.svc.Albums(c.Request.Context())
	if err != nil {
		return common.Internal("Failed to load albums", err)
	}
	if albums == nil {
		albums = []galleryRepo.AlbumCount{}
	}
	common.RespondSuccess(c, gin.H{"albums": albums})
	return nil
}
