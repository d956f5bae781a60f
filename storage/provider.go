package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// LocalURLPrefix 本地存储对外暴露的 URL 前缀
const LocalURLPrefix = "/uploads"

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// Object 已保存对象的定位信息
type Object struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// Provider 对象存储提供者接口
// 进程内只创建一次，初始化后只读，可被并发请求共享
type Provider interface {
	// Save 保存对象，size 未知时传 -1
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)

	// Delete 删除对象，不存在时返回 ErrObjectNotFound
	Delete(ctx context.Context, key string) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}

// IsValidStoragePath 校验存储路径是否合法
func IsValidStoragePath(path string) bool {
	if path == "" {
		return false
	}

	// 不允许绝对路径
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}

	// 防止目录遍历
	if strings.Contains(path, "..") {
		return false
	}

	// 只允许安全字符
	for _, r := range path {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' && r != '/' {
			return false
		}
	}

	return true
}

// joinURL 拼接公开访问地址
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
