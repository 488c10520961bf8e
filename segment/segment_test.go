package segment

import (
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamertechsdefi/morph-canvas/pixel"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

func filled(w, h int, c color.NRGBA) *pixel.Buffer {
	b := pixel.New(w, h)
	for y := range h {
		for x := range w {
			b.Set(x, y, c)
		}
	}
	return b
}

func TestDominantColor_SingleColor(t *testing.T) {
	t.Parallel()

	c := color.NRGBA{R: 12, G: 34, B: 56, A: 255}
	for _, size := range [][2]int{{1, 1}, {1, 9}, {7, 1}, {13, 11}} {
		got := DominantColor(filled(size[0], size[1], c))
		assert.Equal(t, pixel.RGB{R: 12, G: 34, B: 56}, got, "size %v", size)
	}
}

func TestDominantColor_IgnoresAlpha(t *testing.T) {
	t.Parallel()

	b := filled(3, 1, red)
	b.Set(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 0})
	b.Set(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 200})

	h := NewHistogram(b)
	assert.Equal(t, 2, h.Count(pixel.RGB{R: 1, G: 2, B: 3}))
	assert.Equal(t, 2, h.Len())

	got, n := h.Dominant()
	assert.Equal(t, pixel.RGB{R: 1, G: 2, B: 3}, got)
	assert.Equal(t, 2, n)
}

func TestDominantColor_TieBreakFirstSeen(t *testing.T) {
	t.Parallel()

	// 红、黑各两个，红色先出现
	b := pixel.New(2, 2)
	b.Set(0, 0, red)
	b.Set(1, 0, black)
	b.Set(0, 1, black)
	b.Set(1, 1, red)
	assert.Equal(t, pixel.RGB{R: 255}, DominantColor(b))

	// 反过来黑色先出现
	b.Set(0, 0, black)
	b.Set(0, 1, red)
	assert.Equal(t, pixel.RGB{}, DominantColor(b))
}

func TestDominantColor_Empty(t *testing.T) {
	t.Parallel()

	got, n := NewHistogram(pixel.New(0, 0)).Dominant()
	assert.Equal(t, pixel.RGB{R: 255, G: 255, B: 255}, got)
	assert.Zero(t, n)
}

func TestSegment_WhiteBackgroundScenario(t *testing.T) {
	t.Parallel()

	b := pixel.New(2, 2)
	b.Set(0, 0, white)
	b.Set(1, 0, white)
	b.Set(0, 1, white)
	b.Set(1, 1, black)

	s, err := NewSegmenter(10)
	require.NoError(t, err)

	out, dominant := s.Segment(b)
	assert.Equal(t, pixel.RGB{R: 255, G: 255, B: 255}, dominant)
	assert.Equal(t, uint8(0), out.At(0, 0).A)
	assert.Equal(t, uint8(0), out.At(1, 0).A)
	assert.Equal(t, uint8(0), out.At(0, 1).A)
	assert.Equal(t, black, out.At(1, 1))

	// 输入不被修改
	assert.Equal(t, white, b.At(0, 0))
}

func TestSegment_ZeroToleranceClearsExactMatchesOnly(t *testing.T) {
	t.Parallel()

	b := filled(4, 1, white)
	b.Set(3, 0, color.NRGBA{R: 254, G: 255, B: 255, A: 255})

	s, err := NewSegmenter(0)
	require.NoError(t, err)
	out, _ := s.Segment(b)

	for x := range 3 {
		assert.Equal(t, uint8(0), out.At(x, 0).A)
	}
	assert.Equal(t, uint8(255), out.At(3, 0).A)
}

func TestSegment_MaxToleranceClearsEverything(t *testing.T) {
	t.Parallel()

	b := filled(3, 3, white)
	b.Set(1, 1, black)
	b.Set(2, 2, red)

	s, err := NewSegmenter(MaxTolerance)
	require.NoError(t, err)
	out, _ := s.Segment(b)

	for i := 3; i < len(out.Pix()); i += 4 {
		assert.Equal(t, uint8(0), out.Pix()[i])
	}
}

func TestSegment_KeepsForegroundAlpha(t *testing.T) {
	t.Parallel()

	b := filled(3, 1, white)
	b.Set(2, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 77})

	s, err := NewSegmenter(DefaultTolerance)
	require.NoError(t, err)
	out, _ := s.Segment(b)
	assert.Equal(t, color.NRGBA{R: 10, G: 10, B: 10, A: 77}, out.At(2, 0))
}

func TestSegment_OrderIndependent(t *testing.T) {
	t.Parallel()

	const w, h = 16, 12
	rng := rand.New(rand.NewPCG(7, 11))

	// 背景色占多数，不会出现并列
	src := filled(w, h, color.NRGBA{R: 240, G: 240, B: 235, A: 255})
	for range 60 {
		src.Set(rng.IntN(w), rng.IntN(h), color.NRGBA{
			R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255,
		})
	}

	perm := rng.Perm(w * h)
	shuffled := pixel.New(w, h)
	for i, j := range perm {
		copy(shuffled.Pix()[j*4:j*4+4], src.Pix()[i*4:i*4+4])
	}

	s, err := NewSegmenter(DefaultTolerance)
	require.NoError(t, err)
	a, _ := s.Segment(src)
	b, _ := s.Segment(shuffled)

	for i, j := range perm {
		assert.Equal(t, a.Pix()[i*4+3], b.Pix()[j*4+3], "pixel %d", i)
	}
}

func TestNewSegmenter_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewSegmenter(-1)
	assert.ErrorIs(t, err, ErrInvalidTolerance)
}

func TestDistance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 441.67, Distance(pixel.RGB{}, pixel.RGB{R: 255, G: 255, B: 255}), 0.01)
	assert.Zero(t, Distance(pixel.RGB{R: 3}, pixel.RGB{R: 3}))
	assert.InDelta(t, 5.0, Distance(pixel.RGB{R: 3, G: 4}, pixel.RGB{}), 1e-9)
}
