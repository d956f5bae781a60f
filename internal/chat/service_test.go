package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/mba-portal/cache/memory"
	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/database/repo/content"
	"github.com/cohortlab/mba-portal/internal/llm"
	"github.com/cohortlab/mba-portal/internal/llm/llmtest"
)

// countingSource 统计仓库调用次数
type countingSource struct {
	ContentSource
	calls atomic.Int32
	err   error
}

func (c *countingSource) TopInterviews(ctx context.Context, limit int) ([]*models.InterviewExperience, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.ContentSource.TopInterviews(ctx, limit)
}

func seedContent(t *testing.T) ContentSource {
	t.Helper()
	db := dbtest.Open(t)
	for i := 0; i < 15; i++ {
		require.NoError(t, db.Create(&models.InterviewExperience{
			Company: fmt.Sprintf("Company-%02d", i),
			Role:    "Consultant",
			Content: "case interview",
			Upvotes: i * 3,
		}).Error)
	}
	require.NoError(t, db.Create(&models.Resource{Title: "Case Book", Category: "consulting"}).Error)
	require.NoError(t, db.Create(&models.Announcement{Title: "Mixer Friday", Content: "Bring friends"}).Error)
	return content.NewRepository(db)
}

func TestReply_ContextHasOnlyTopTenInterviews(t *testing.T) {
	ai := &llmtest.Fake{Response: "Try the case book."}
	svc := NewService(seedContent(t), ai, nil, 0)

	reply, err := svc.Reply(context.Background(), "How do I prep for consulting?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Try the case book.", reply)

	system := ai.LastRequest().System
	for i := 5; i < 15; i++ {
		assert.Contains(t, system, fmt.Sprintf("Company-%02d", i))
	}
	for i := 0; i < 5; i++ {
		assert.NotContains(t, system, fmt.Sprintf("Company-%02d,", i))
	}
	assert.Contains(t, system, "Case Book")
	assert.Contains(t, system, "Mixer Friday")
	assert.True(t, strings.HasPrefix(system, systemPrompt))
}

func TestReply_HistoryTrimmed(t *testing.T) {
	ai := &llmtest.Fake{Response: "ok"}
	svc := NewService(seedContent(t), ai, nil, 0)

	var history []llm.Message
	for i := 0; i < 9; i++ {
		history = append(history, llm.Message{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}

	_, err := svc.Reply(context.Background(), "latest", history)
	require.NoError(t, err)

	msgs := ai.LastRequest().Messages
	require.Len(t, msgs, 7)
	assert.Equal(t, "turn 3", msgs[0].Content)
	assert.Equal(t, "latest", msgs[6].Content)
}

func TestReply_ValidationBeforeExternalCalls(t *testing.T) {
	source := &countingSource{ContentSource: seedContent(t)}
	ai := &llmtest.Fake{}
	svc := NewService(source, ai, nil, 0)

	_, err := svc.Reply(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, ai.Calls())
	assert.Zero(t, source.calls.Load())

	unconfigured := NewService(source, &llmtest.Fake{Unconfigured: true}, nil, 0)
	_, err = unconfigured.Reply(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
	assert.Zero(t, source.calls.Load())
}

func TestReply_Failures(t *testing.T) {
	source := &countingSource{ContentSource: seedContent(t), err: errors.New("db down")}
	svc := NewService(source, &llmtest.Fake{Response: "x"}, nil, 0)
	_, err := svc.Reply(context.Background(), "hi", nil)
	assert.Error(t, err)

	svc = NewService(seedContent(t), &llmtest.Fake{Err: errors.New("quota")}, nil, 0)
	_, err = svc.Reply(context.Background(), "hi", nil)
	assert.Error(t, err)
}

func TestReply_ContextCached(t *testing.T) {
	mem, err := memory.NewMemory(memory.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	defer func() { _ = mem.Close() }()

	source := &countingSource{ContentSource: seedContent(t)}
	ai := &llmtest.Fake{Response: "ok"}
	svc := NewService(source, ai, mem, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := svc.Reply(context.Background(), "hi", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), source.calls.Load())
	assert.Equal(t, 3, ai.Calls())

	require.NoError(t, svc.InvalidateContext(context.Background()))
	_, err = svc.Reply(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestReply_NoCacheQueriesEveryTime(t *testing.T) {
	mem, err := memory.NewMemory(memory.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	defer func() { _ = mem.Close() }()

	source := &countingSource{ContentSource: seedContent(t)}
	svc := NewService(source, &llmtest.Fake{Response: "ok"}, mem, 0)

	for i := 0; i < 3; i++ {
		_, err := svc.Reply(context.Background(), "hi", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), source.calls.Load())
}

// gatedSource 在放行前阻塞面经查询
type gatedSource struct {
	countingSource
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) TopInterviews(ctx context.Context, limit int) ([]*models.InterviewExperience, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.countingSource.TopInterviews(ctx, limit)
}

func TestReply_CancelledCallerDoesNotAbortSharedLoad(t *testing.T) {
	mem, err := memory.NewMemory(memory.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	defer func() { _ = mem.Close() }()

	source := &gatedSource{
		countingSource: countingSource{ContentSource: seedContent(t)},
		entered:        make(chan struct{}, 1),
		release:        make(chan struct{}),
	}
	ai := &llmtest.Fake{Response: "ok"}
	svc := NewService(source, ai, mem, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Reply(ctx, "hi", nil)
		done <- err
	}()

	<-source.entered
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(source.release)
	require.Eventually(t, func() bool {
		var block string
		return mem.Get(context.Background(), "chat:context", &block) == nil && strings.Contains(block, "Company-14")
	}, 2*time.Second, 10*time.Millisecond)

	_, err = svc.Reply(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.calls.Load())
	assert.Equal(t, 1, ai.Calls())
}
