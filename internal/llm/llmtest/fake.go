// Package llmtest 提供测试用的文本生成客户端
package llmtest

import (
	"context"
	"sync"

	"github.com/cohortlab/mba-portal/internal/llm"
)

// Fake 记录调用并返回预设结果
type Fake struct {
	Response     string
	Err          error
	Unconfigured bool

	mu       sync.Mutex
	requests []llm.Request
}

func (f *Fake) Configured() bool {
	return !f.Unconfigured
}

func (f *Fake) Name() string {
	return "fake"
}

func (f *Fake) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Unconfigured {
		return "", llm.ErrNotConfigured
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Response, nil
}

// Calls 返回调用次数
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// LastRequest 返回最后一次请求
func (f *Fake) LastRequest() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return llm.Request{}
	}
	return f.requests[len(f.requests)-1]
}
