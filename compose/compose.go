// Package compose 把抠好的前景合成到背景上，以及给前景着色、按主体裁剪。
package compose

import (
	"errors"
	"fmt"
	"math"

	"github.com/gamertechsdefi/morph-canvas/pixel"
)

// TintSpec 着色颜色和混合系数，Factor 取值 [0,1]
type TintSpec struct {
	Color  pixel.RGB
	Factor float64
}

var DefaultTint = TintSpec{Color: pixel.RGB{R: 102, G: 212, B: 255}, Factor: 0.2}

var ErrInvalidTintFactor = errors.New("tint factor must be within [0, 1]")

// Composite 把背景缩放到前景尺寸，再用 over 运算把前景叠到背景上
// 结果尺寸与前景相同
func Composite(fg, bg *pixel.Buffer, interp pixel.Interpolation) (*pixel.Buffer, error) {
	bgResized, err := pixel.Resize(bg, fg.Width(), fg.Height(), interp)
	if err != nil {
		return nil, fmt.Errorf("resize background: %w", err)
	}

	out := bgResized.Pix()
	src := fg.Pix()
	for i := 0; i+3 < len(src); i += 4 {
		over(out[i:i+4:i+4], src[i:i+4:i+4])
	}
	return bgResized, nil
}

// over 非预乘空间的 Porter-Duff over，dst 原地更新
// 背景不透明时等价于 out = fg*a + bg*(1-a)
func over(dst, src []uint8) {
	fa := float64(src[3]) / 255
	switch src[3] {
	case 255:
		copy(dst, src)
		return
	case 0:
		return
	}

	ba := float64(dst[3]) / 255
	outA := fa + ba*(1-fa)
	for c := range 3 {
		v := (float64(src[c])*fa + float64(dst[c])*ba*(1-fa)) / outA
		dst[c] = clamp(v)
	}
	dst[3] = clamp(outA * 255)
}

// Tint 对 alpha > 0 的像素混入统一的颜色，返回副本
func Tint(b *pixel.Buffer, spec TintSpec) (*pixel.Buffer, error) {
	if spec.Factor < 0 || spec.Factor > 1 || math.IsNaN(spec.Factor) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTintFactor, spec.Factor)
	}

	out := b.Clone()
	tint := [3]float64{float64(spec.Color.R), float64(spec.Color.G), float64(spec.Color.B)}
	keep := 1 - spec.Factor
	pix := out.Pix()
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			continue
		}
		for c := range 3 {
			pix[i+c] = clamp(float64(pix[i+c])*keep + tint[c]*spec.Factor)
		}
	}
	return out, nil
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
