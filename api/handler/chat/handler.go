package chat

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cohortlab/mba-portal/api/common"
	chatSvc "github.com/cohortlab/mba-portal/internal/chat"
	"github.com/cohortlab/mba-portal/internal/linkedin"
	"github.com/cohortlab/mba-portal/internal/llm"
)

// Handler AI 对话与 LinkedIn 解析处理器
type Handler struct {
	chat     *chatSvc.Service
	linkedin *linkedin.Service
}

// NewHandler 创建 AI 处理器
func NewHandler(chat *chatSvc.Service, parser *linkedin.Service) *Handler {
	return &Handler{chat: chat, linkedin: parser}
}

type historyItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []historyItem `json:"conversationHistory"`
}

// Chat 回答成员问题，上下文来自面经、资源和公告
func (h *Handler) Chat(c *gin.Context) error {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return common.BadRequest("Message is required")
	}

	history := make([]llm.Message, 0, len(req.ConversationHistory))
	for _, item := range req.ConversationHistory {
		history = append(history, llm.Message{Role: item.Role, Content: item.Content})
	}

	reply, err := h.chat.Reply(c.Request.Context(), req.Message, history)
	switch {
	case err == nil:
		common.RespondSuccess(c, gin.H{"response": reply})
		return nil
	case errors.Is(err, chatSvc.ErrEmptyMessage):
		return common.BadRequest("Message is required")
	case errors.Is(err, llm.ErrNotConfigured):
		return common.Internal("AI service not configured", err)
	default:
		return common.Internal("Failed to process chat message", err)
	}
}

type parseRequest struct {
	LinkedinData string `json:"linkedinData"`
}

// ParseLinkedIn 从粘贴的 LinkedIn 文本中提取资料字段
func (h *Handler) ParseLinkedIn(c *gin.Context) error {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return common.BadRequest("LinkedIn data is required")
	}

	profile, err := h.linkedin.Parse(c.Request.Context(), req.LinkedinData)
	if err == nil {
		common.RespondSuccess(c, gin.H{"profile": profile})
		return nil
	}

	var malformed *linkedin.MalformedOutputError
	switch {
	case errors.Is(err, linkedin.ErrEmptyInput):
		return common.BadRequest("LinkedIn data is required")
	case errors.Is(err, llm.ErrNotConfigured):
		return common.Internal("AI service not configured", err)
	case errors.As(err, &malformed):
		return common.Unprocessable("Failed to parse AI response", err).
			WithFields(gin.H{"rawResponse": malformed.Excerpt()})
	default:
		return common.Internal("Failed to parse LinkedIn profile", err)
	}
}
