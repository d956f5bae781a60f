package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cohortlab/mba-portal/config"
)

var (
	// ErrNotConfigured 未配置 API Key
	ErrNotConfigured = errors.New("llm api key is not configured")
	// ErrEmptyResponse 模型没有返回文本
	ErrEmptyResponse = errors.New("llm returned no text")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 一轮对话
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 文本生成请求
type Request struct {
	System   string
	Messages []Message
	// JSON 要求模型只输出 JSON 对象
	JSON bool
}

// Generator 文本生成客户端
type Generator interface {
	// Configured 是否已配置 API Key
	Configured() bool

	// Generate 返回模型的完整文本输出
	Generate(ctx context.Context, req Request) (string, error)

	// Name 返回提供者名称
	Name() string
}

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "portal_llm_requests_total",
	Help: "Text generation requests by provider and outcome.",
}, []string{"provider", "outcome"})

// observe 记录一次调用结果
func observe(provider string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConfigured):
		outcome = "not_configured"
	case errors.Is(err, ErrEmptyResponse):
		outcome = "empty"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	requestsTotal.WithLabelValues(provider, outcome).Inc()
}

// New 按 ai_provider 创建文本生成客户端
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	switch strings.ToLower(cfg.AIProvider) {
	case "", "gemini":
		return NewGemini(ctx, GeminiConfig{
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
			BaseURL: cfg.AIBaseURL,
			Timeout: timeout,
		})
	case "openrouter", "openai":
		return NewOpenRouter(OpenRouterConfig{
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
			BaseURL: cfg.AIBaseURL,
			Timeout: timeout,
		}, nil), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider '%s'", cfg.AIProvider)
	}
}

// TrimHistory 保留最近 n 轮对话，并规范化角色
func TrimHistory(history []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}

	out := make([]Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := RoleUser
		if m.Role == RoleAssistant || m.Role == "model" {
			role = RoleAssistant
		}
		out = append(out, Message{Role: role, Content: m.Content})
	}
	return out
}
