package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/mba-portal/config"
)

// TestNewFactory_Local 测试默认本地存储
func TestNewFactory_Local(t *testing.T) {
	cfg := &config.Config{
		ServerHost:       "127.0.0.1",
		ServerPort:       9000,
		StorageType:      "local",
		StorageLocalPath: t.TempDir(),
	}

	f, err := NewFactory(cfg)
	require.NoError(t, err)
	assert.Equal(t, "local", f.GetDefault().Name())

	path, ok := f.LocalBasePath()
	assert.True(t, ok)
	assert.NotEmpty(t, path)

	local := f.GetDefault().(*LocalStorage)
	assert.Equal(t, "http://127.0.0.1:9000/uploads", local.publicBaseURL)
}

// TestNewFactory_Unsupported 测试未知存储类型
func TestNewFactory_Unsupported(t *testing.T) {
	_, err := NewFactory(&config.Config{StorageType: "floppy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

// TestNewFactory_WebDAVRequiresURL 测试 WebDAV 缺少地址
func TestNewFactory_WebDAVRequiresURL(t *testing.T) {
	_, err := NewFactory(&config.Config{StorageType: "webdav"})
	require.Error(t, err)
}
