package segment

import (
	"errors"
	"fmt"
	"math"

	"github.com/gamertechsdefi/morph-canvas/pixel"
)

const (
	// DefaultTolerance 默认颜色距离阈值
	DefaultTolerance = 40.0
	// MaxTolerance 阈值达到这个值时所有像素都算背景
	MaxTolerance = 441.0
)

var ErrInvalidTolerance = errors.New("tolerance must be a non-negative number")

// Segmenter 把与主色的 RGB 欧氏距离 <= Tolerance 的像素设为全透明
type Segmenter struct {
	Tolerance float64
}

func NewSegmenter(tolerance float64) (*Segmenter, error) {
	if tolerance < 0 || math.IsNaN(tolerance) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTolerance, tolerance)
	}
	return &Segmenter{Tolerance: tolerance}, nil
}

// Segment 返回去背景后的副本以及用作背景估计的主色
// 每个像素独立判断，一次扫描，不做区域生长和边缘平滑
func (s *Segmenter) Segment(b *pixel.Buffer) (*pixel.Buffer, pixel.RGB) {
	dominant := DominantColor(b)
	out := b.Clone()
	ClearColor(out, dominant, s.Tolerance)
	return out, dominant
}

// ClearColor 原地把与 c 距离 <= tolerance 的像素 alpha 置 0，其它像素保持不变
// 返回被清除的像素个数
func ClearColor(b *pixel.Buffer, c pixel.RGB, tolerance float64) int {
	all := tolerance >= MaxTolerance
	pix := b.Pix()
	cleared := 0
	for i := 0; i+3 < len(pix); i += 4 {
		if all || Distance(pixel.RGB{R: pix[i], G: pix[i+1], B: pix[i+2]}, c) <= tolerance {
			pix[i+3] = 0
			cleared++
		}
	}
	return cleared
}

// Distance RGB 欧氏距离，不含 alpha
func Distance(a, b pixel.RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
