package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/mba-portal/cache/memory"
	"github.com/cohortlab/mba-portal/config"
)

func newTestMemory(t *testing.T) Provider {
	t.Helper()
	m, err := memory.NewMemory(memory.Config{
		NumCounters: 1000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemoryCache(t *testing.T) {
	c := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "test_key", "test_value", 10*time.Second))

	var got string
	require.NoError(t, c.Get(ctx, "test_key", &got))
	assert.Equal(t, "test_value", got)

	exists, err := c.Exists(ctx, "test_key")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "test_key"))
	assert.True(t, IsCacheMiss(c.Get(ctx, "test_key", &got)))
}

func TestMemoryCacheStruct(t *testing.T) {
	c := newTestMemory(t)
	ctx := context.Background()

	type item struct {
		Name  string
		Value int
	}

	require.NoError(t, c.Set(ctx, "struct_key", []item{{Name: "a", Value: 1}, {Name: "b", Value: 2}}, time.Minute))

	var got []item
	require.NoError(t, c.Get(ctx, "struct_key", &got))
	assert.Equal(t, []item{{Name: "a", Value: 1}, {Name: "b", Value: 2}}, got)
}

func TestCacheMiss(t *testing.T) {
	c := newTestMemory(t)

	var value string
	err := c.Get(context.Background(), "nonexistent_key", &value)
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFactoryFallsBackToMemory(t *testing.T) {
	f, err := NewFactory(&config.Config{
		CacheType:      "redis",
		CacheRedisAddr: "127.0.0.1:1",
	})
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, "memory", f.GetProvider().Name())
}

func TestKeyBuilder(t *testing.T) {
	kb := NewKeyBuilder("chat")
	assert.Equal(t, "chat", kb.Build())
	assert.Equal(t, "chat:context:v1", kb.Build("context", "v1"))
	assert.Equal(t, "chat:context", kb.Build("", "context", ""))
}
