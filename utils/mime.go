package utils

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// mimeToExtMap MIME类型到安全扩展名的映射
var mimeToExtMap = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"application/pdf": ".pdf",
}

// BaseContentType 去除 MIME 参数并转为小写
func BaseContentType(contentType string) string {
	contentType = strings.Split(contentType, ";")[0]
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IsImageContentType 判断 MIME 类型是否为图片
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(BaseContentType(contentType), "image/")
}

// GetSafeExtension 根据MIME类型返回安全的文件扩展名
// 如果MIME类型不被允许，返回空字符串
func GetSafeExtension(mimeType string) string {
	if ext, ok := mimeToExtMap[BaseContentType(mimeType)]; ok {
		return ext
	}
	return ""
}

// SniffContentType 根据文件头判断类型，读取后将流重置到开头
func SniffContentType(stream io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)

	n, err := stream.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read stream for mime sniffing: %w", err)
	}

	contentType := http.DetectContentType(buffer[:n])

	_, err = stream.Seek(0, io.SeekStart)
	if err != nil {
		return "", fmt.Errorf("failed to seek stream back to start after sniffing: %w", err)
	}

	return contentType, nil
}
