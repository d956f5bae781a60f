package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cohortlab/mba-portal/cache"
	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/internal/llm"
)

const (
	interviewLimit    = 10
	resourceLimit     = 10
	announcementLimit = 5
	historyTurns      = 6

	// contextLoadTimeout 合并查询与发起请求的取消解耦后的上限
	contextLoadTimeout = 10 * time.Second
)

// ErrEmptyMessage 消息为空
var ErrEmptyMessage = errors.New("message is required")

const systemPrompt = `You are the assistant for an MBA cohort community portal.
Help members with questions about interviews, career resources, events and cohort announcements.
Ground your answers in the community context below when it is relevant, cite companies and resource titles by name,
and say so plainly when the context does not cover a question. Keep answers concise and practical.`

var contextKeys = cache.NewKeyBuilder("chat")

// ContentSource 提供对话上下文的内容仓库
type ContentSource interface {
	TopInterviews(ctx context.Context, limit int) ([]*models.InterviewExperience, error)
	RecentResources(ctx context.Context, limit int) ([]*models.Resource, error)
	RecentAnnouncements(ctx context.Context, limit int) ([]*models.Announcement, error)
}

// Service AI 对话服务
type Service struct {
	content  ContentSource
	ai       llm.Generator
	cache    cache.Provider
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewService 创建对话服务，cacheProvider 为空或 ttl 为 0 时每次对话都重新查询上下文
func NewService(content ContentSource, ai llm.Generator, cacheProvider cache.Provider, ttl time.Duration) *Service {
	return &Service{
		content:  content,
		ai:       ai,
		cache:    cacheProvider,
		cacheTTL: ttl,
	}
}

// Configured AI 是否可用
func (s *Service) Configured() bool {
	return s.ai.Configured()
}

// Reply 组装上下文并返回模型回复
func (s *Service) Reply(ctx context.Context, message string, history []llm.Message) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if !s.ai.Configured() {
		return "", llm.ErrNotConfigured
	}

	block, err := s.contextBlock(ctx)
	if err != nil {
		return "", fmt.Errorf("build chat context: %w", err)
	}

	messages := append(llm.TrimHistory(history, historyTurns), llm.Message{Role: llm.RoleUser, Content: message})

	reply, err := s.ai.Generate(ctx, llm.Request{
		System:   systemPrompt + "\n\n" + block,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("generate chat reply: %w", err)
	}
	return reply, nil
}

// InvalidateContext 删除缓存的上下文，下一次对话重新查询
func (s *Service) InvalidateContext(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	err := s.cache.Delete(ctx, contextKeys.Build("context"))
	if cache.IsCacheMiss(err) {
		return nil
	}
	return err
}

// contextBlock 未启用缓存时每次直接查询；启用时读取缓存，未命中则合并同时到达的请求
func (s *Service) contextBlock(ctx context.Context) (string, error) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return s.loadContext(ctx)
	}

	key := contextKeys.Build("context")
	var cached string
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !cache.IsCacheMiss(err) {
		log.Printf("[Chat] context cache read failed: %v", err)
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		// 不继承发起者的取消，否则一个请求断开会让合并进来的请求全部失败
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), contextLoadTimeout)
		defer cancel()

		block, err := s.loadContext(loadCtx)
		if err != nil {
			return "", err
		}
		if err := s.cache.Set(loadCtx, key, block, s.cacheTTL); err != nil {
			log.Printf("[Chat] context cache write failed: %v", err)
		}
		return block, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// loadContext 并发获取三类上下文
func (s *Service) loadContext(ctx context.Context) (string, error) {
	var (
		interviews    []*models.InterviewExperience
		resources     []*models.Resource
		announcements []*models.Announcement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		interviews, err = s.content.TopInterviews(gctx, interviewLimit)
		return err
	})
	g.Go(func() (err error) {
		resources, err = s.content.RecentResources(gctx, resourceLimit)
		return err
	})
	g.Go(func() (err error) {
		announcements, err = s.content.RecentAnnouncements(gctx, announcementLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	return BuildContext(interviews, resources, announcements), nil
}

// BuildContext 将上下文格式化为提示词片段
func BuildContext(interviews []*models.InterviewExperience, resources []*models.Resource, announcements []*models.Announcement) string {
	var sb strings.Builder

	sb.WriteString("## Interview experiences\n")
	if len(interviews) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, iv := range interviews {
		fmt.Fprintf(&sb, "- %s, %s (%d upvotes): %s\n", iv.Company, iv.Role, iv.Upvotes, oneLine(iv.Content))
	}

	sb.WriteString("\n## Resources\n")
	if len(resources) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, r := range resources {
		fmt.Fprintf(&sb, "- %s [%s]: %s\n", r.Title, r.Category, oneLine(r.Description))
	}

	sb.WriteString("\n## Announcements\n")
	if len(announcements) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, a := range announcements {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", a.Title, a.CreatedAt.Format("2006-01-02"), oneLine(a.Content))
	}

	return sb.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
