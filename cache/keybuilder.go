package cache

import "strings"

// KeyBuilder 按前缀拼接缓存键，例如 dashboard:stats
type KeyBuilder struct {
	prefix string
}

func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{prefix: prefix}
}

// Build 用 ":" 连接前缀与各段，空段被忽略
func (kb *KeyBuilder) Build(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, kb.prefix)
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, ":")
}
