package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

// Processed 处理后的头像
type Processed struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Process 解码图片，等比缩放到 maxDim 以内并重新编码
// PNG 保持 PNG，其余格式统一编码为 JPEG
func Process(r io.Reader, maxDim int) (*Processed, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := fit(img, maxDim)
	bounds := resized.Bounds()

	var buf bytes.Buffer
	out := &Processed{Width: bounds.Dx(), Height: bounds.Dy()}

	if format == "png" {
		if err := png.Encode(&buf, resized); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
		out.ContentType, out.Ext = "image/png", ".png"
	} else {
		if err := jpeg.Encode(&buf, flatten(resized), &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		out.ContentType, out.Ext = "image/jpeg", ".jpg"
	}

	out.Data = buf.Bytes()
	return out, nil
}

// fit 等比缩放，图片已经足够小时原样返回
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return img
	}

	newWidth, newHeight := maxDim, maxDim
	if width >= height {
		newHeight = max(1, height*maxDim/width)
	} else {
		newWidth = max(1, width*maxDim/height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// flatten 将透明区域铺白，JPEG 不支持透明通道
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}
