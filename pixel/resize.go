package pixel

import (
	"fmt"
	"image"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Interpolation 缩放时使用的插值算法，同样的输入总是得到同样的输出
type Interpolation int

const (
	NearestNeighbor Interpolation = iota
	Bilinear
	Lanczos3
	CatmullRom
)

var interpolationNames = map[Interpolation]string{
	NearestNeighbor: "nearest",
	Bilinear:        "bilinear",
	Lanczos3:        "lanczos3",
	CatmullRom:      "catmullrom",
}

func (i Interpolation) String() string {
	if s, ok := interpolationNames[i]; ok {
		return s
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

// ParseInterpolation 解析插值名称，大小写不敏感
func ParseInterpolation(s string) (Interpolation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, v := range interpolationNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown interpolation %q", s)
}

// Resize 缩放到指定尺寸，返回新的 Buffer
func Resize(b *Buffer, width, height int, interp Interpolation) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", width, height)
	}

	// nfnt/resize 尺寸相同时会直接返回原图
	if width == b.Width() && height == b.Height() {
		return b.Clone(), nil
	}

	switch interp {
	case CatmullRom:
		dst := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), b.img, b.img.Bounds(), draw.Src, nil)
		return &Buffer{img: dst}, nil
	case NearestNeighbor:
		return FromImage(resize.Resize(uint(width), uint(height), b.img, resize.NearestNeighbor)), nil
	case Bilinear:
		return FromImage(resize.Resize(uint(width), uint(height), b.img, resize.Bilinear)), nil
	case Lanczos3:
		return FromImage(resize.Resize(uint(width), uint(height), b.img, resize.Lanczos3)), nil
	default:
		return nil, fmt.Errorf("unsupported interpolation %s", interp)
	}
}

// ResizeWithinMax 等比缩放，最长边 <= maxSize；本来就够小则返回原 Buffer
func ResizeWithinMax(b *Buffer, maxSize int, interp Interpolation) (*Buffer, error) {
	w, h := b.Width(), b.Height()
	longest := max(w, h)
	if maxSize <= 0 || longest <= maxSize {
		return b, nil
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))
	return Resize(b, newW, newH, interp)
}
