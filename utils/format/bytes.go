package format

import "fmt"

var units = []string{"B", "KB", "MB", "GB", "TB"}

// HumanReadableSize 字节数转换为 1.50 MB 这样的格式，用于批处理汇总输出
func HumanReadableSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes)
	exp := 0
	for value >= 1024 && exp < len(units)-1 {
		value /= 1024
		exp++
	}
	return fmt.Sprintf("%.2f %s", value, units[exp])
}
