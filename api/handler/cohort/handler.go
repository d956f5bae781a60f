package cohort

import (
	"context"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cohortlab/mba-portal/api/common"
	"github.com/cohortlab/mba-portal/internal/auth"
	"github.com/cohortlab/mba-portal/internal/dashboard"
)

// ContextInvalidator 清除 AI 对话上下文缓存
type ContextInvalidator interface {
	InvalidateContext(ctx context.Context) error
}

// Handler Dashboard、活动与公告处理器
type Handler struct {
	svc  *dashboard.Service
	chat ContextInvalidator
}

// NewHandler 创建新的 Dashboard 处理器
func NewHandler(svc *dashboard.Service, chat ContextInvalidator) *Handler {
	return &Handler{svc: svc, chat: chat}
}

// GetStats 获取 Dashboard 数据
// GET /api/dashboard
func (h *Handler) GetStats(c *gin.Context, _ *auth.Principal) error {
	stats, err := h.svc.GetStats(c.Request.Context())
	if err != nil {
		return common.Internal("Failed to get dashboard stats", err)
	}
	common.RespondSuccess(c, gin.H{"dashboard": stats})
	return nil
}

// ListEvents 活动列表
// GET /api/events?upcoming=true&limit=20
func (h *Handler) ListEvents(c *gin.Context, _ *auth.Principal) error {
	upcoming, _ := strconv.ParseBool(c.Query("upcoming"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := h.svc.Events(c.Request.Context(), upcoming, limit)
	if err != nil {
		return common.Internal("Failed to load events", err)
	}
	common.RespondSuccess(c, gin.H{"events": events})
	return nil
}

// ListAnnouncements 最新公告
// GET /api/announcements?limit=20
func (h *Handler) ListAnnouncements(c *gin.Context, _ *auth.Principal) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	announcements, err := h.svc.Announcements(c.Request.Context(), limit)
	if err != nil {
		return common.Internal("Failed to load announcements", err)
	}
	common.RespondSuccess(c, gin.H{"announcements": announcements})
	return nil
}

// RefreshCaches 清除 Dashboard 与对话上下文缓存，内容更新后由管理员调用
// POST /api/admin/cache/refresh
func (h *Handler) RefreshCaches(c *gin.Context, principal *auth.Principal) error {
	ctx := c.Request.Context()
	if err := h.svc.RefreshCache(ctx); err != nil {
		return common.Internal("Failed to refresh caches", err)
	}
	if h.chat != nil {
		if err := h.chat.InvalidateContext(ctx); err != nil {
			return common.Internal("Failed to refresh caches", err)
		}
	}

	log.Printf("[Admin] User %s refreshed dashboard and chat caches", principal.UserID)
	common.RespondSuccess(c, gin.H{"message": "Caches refreshed"})
	return nil
}
