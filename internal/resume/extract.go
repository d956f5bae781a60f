package resume

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"rsc.io/pdf"
)

// DefaultTextLimit AI 精炼时附带的简历文本上限（字符）
const DefaultTextLimit = 8000

// wordGapRatio 同一行两个字形的间距超过字号的该比例时视为词间空格
const wordGapRatio = 0.2

// open 打开 PDF 并确认至少有一页，解析器对损坏文件会 panic
func open(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if reader.NumPage() < 1 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	return reader, nil
}

// Validate 校验数据是否为可读取的 PDF
func Validate(data []byte) error {
	_, err := open(data)
	return err
}

// ExtractText 提取 PDF 文本，最多保留 maxRunes 个字符
func ExtractText(data []byte, maxRunes int) (text string, err error) {
	reader, err := open(data)
	if err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf content: %v", r)
		}
	}()

	// 解析器逐字形返回文本且不输出空格，按基线 Y 坐标拼回行，按水平间距补回空格
	var sb strings.Builder
	runeCount := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		lineY, lineEnd, started := 0.0, 0.0, false
		for _, item := range page.Content().Text {
			if item.S == "" {
				continue
			}
			if !started || item.Y != lineY {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
					runeCount++
				}
				lineY, started = item.Y, true
			} else if item.X-lineEnd > item.FontSize*wordGapRatio {
				sb.WriteByte(' ')
				runeCount++
			}
			lineEnd = item.X + item.W
			sb.WriteString(item.S)
			runeCount += utf8.RuneCountInString(item.S)
			if maxRunes > 0 && runeCount >= maxRunes {
				return normalize(trimToRunes(sb.String(), maxRunes)), nil
			}
		}
	}
	return normalize(sb.String()), nil
}

// normalize 去掉每行首尾空白和空行
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func trimToRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
