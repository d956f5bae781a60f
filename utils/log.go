package utils

import (
	"strings"
	"unicode"
)

// SanitizeLogMessage 去除不可打印字符，防止日志注入
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == 10 || r == 9 {
			sb.WriteRune(r)
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogField 截断并清理单个用户输入字段
func SanitizeLogField(value string) string {
	if len([]rune(value)) > 80 {
		value = string([]rune(value)[:80]) + "..."
	}
	return strings.ReplaceAll(SanitizeLogMessage(value), "\n", " ")
}
