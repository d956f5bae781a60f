package storage

import (
	"context"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompensate(t *testing.T) {
	s := newTestLocal(t)

	ctx, cancel := context.WithCancel(context.Background())
	obj, err := s.Save(ctx, "gallery/General/orphan.png", strings.NewReader("x"), 1, "image/png")
	require.NoError(t, err)
	cancel()

	before := orphanCount(t, "test_route")

	// 请求上下文已取消时仍然执行删除
	require.NoError(t, Compensate(ctx, s, "test_route", obj.Key))
	exists, err := s.Exists(context.Background(), obj.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	// 第二次删除失败，记为孤儿上传
	assert.Error(t, Compensate(context.Background(), s, "test_route", obj.Key))
	assert.Equal(t, before+1, orphanCount(t, "test_route"))
}

func orphanCount(t *testing.T, route string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, OrphanedUploads.WithLabelValues(route).Write(m))
	return m.GetCounter().GetValue()
}
