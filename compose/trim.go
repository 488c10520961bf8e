package compose

import (
	"errors"
	"image"

	"github.com/gamertechsdefi/morph-canvas/pixel"
)

var ErrNoForeground = errors.New("no foreground pixels found")

// TrimOptions 按主体裁剪的参数
type TrimOptions struct {
	// Threshold alpha > Threshold*255 的像素算主体，取值 [0,1)
	Threshold float64
	// Square 以主体中心为中心裁成正方形（超出画布的部分截掉）
	Square bool
}

// Trim 裁掉主体周围的透明区域，返回新的 Buffer
func Trim(b *pixel.Buffer, opts TrimOptions) (*pixel.Buffer, error) {
	bbox, err := alphaBBox(b.Image(), opts.Threshold)
	if err != nil {
		return nil, err
	}

	if opts.Square {
		bbox = squareAround(bbox).Intersect(b.Image().Bounds())
	}

	return pixel.FromImage(b.Image().SubImage(bbox)), nil
}

// alphaBBox 从 alpha 通道计算主体 bounding box
func alphaBBox(img *image.NRGBA, threshold float64) (image.Rectangle, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	th := uint8(max(0, min(threshold, 1)) * 255)

	minX, minY := w, h
	maxX, maxY := 0, 0
	found := false

	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			if img.Pix[row+x*4+3] <= th {
				continue
			}
			found = true
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}

	if !found {
		return image.Rectangle{}, ErrNoForeground
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), nil
}

// squareAround 以 bbox 中心、最长边为边长的正方形
func squareAround(bbox image.Rectangle) image.Rectangle {
	size := max(bbox.Dx(), bbox.Dy())
	x0 := (bbox.Min.X+bbox.Max.X)/2 - size/2
	y0 := (bbox.Min.Y+bbox.Max.Y)/2 - size/2
	return image.Rect(x0, y0, x0+size, y0+size)
}
