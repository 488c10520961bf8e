// Package pixel 提供解码后的 RGBA 像素缓冲区，以及 PNG 编解码和缩放。
package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// RGB 不含 alpha 的颜色
type RGB struct {
	R, G, B uint8
}

// Buffer 行优先、非预乘的 RGBA 像素缓冲区
// 底层是原点为 (0,0)、Stride 为 4*width 的 *image.NRGBA，保证 len(Pix) == 4*width*height
type Buffer struct {
	img *image.NRGBA
}

// New 创建一个全透明的缓冲区
func New(width, height int) *Buffer {
	return &Buffer{img: image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))}
}

// FromImage 把任意 image.Image 转成 Buffer（总是复制一份）
func FromImage(img image.Image) *Buffer {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Buffer{img: dst}
}

// adopt 紧凑且原点为 (0,0) 的 NRGBA 直接接管，其它情况复制
// 只用于刚解码出来、没有其它引用的图像
func adopt(img image.Image) *Buffer {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return &Buffer{img: n}
	}
	return FromImage(img)
}

func (b *Buffer) Width() int  { return b.img.Rect.Dx() }
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Len 像素个数
func (b *Buffer) Len() int { return b.Width() * b.Height() }

// Pix 返回底层像素数据，每个像素 4 字节 r,g,b,a
func (b *Buffer) Pix() []uint8 { return b.img.Pix }

// Image 返回底层图像，修改会直接作用到 Buffer 上
func (b *Buffer) Image() *image.NRGBA { return b.img }

func (b *Buffer) At(x, y int) color.NRGBA {
	return b.img.NRGBAAt(x, y)
}

func (b *Buffer) Set(x, y int, c color.NRGBA) {
	b.img.SetNRGBA(x, y, c)
}

// Clone 深拷贝
func (b *Buffer) Clone() *Buffer {
	dst := image.NewNRGBA(b.img.Rect)
	copy(dst.Pix, b.img.Pix)
	return &Buffer{img: dst}
}

// HasAlpha 检查 alpha 通道是否真的包含透明信息
// 只要存在非 255（非完全不透明），就认为已有抠图
func (b *Buffer) HasAlpha() bool {
	for i := 3; i < len(b.img.Pix); i += 4 {
		if b.img.Pix[i] != 255 {
			return true
		}
	}
	return false
}
