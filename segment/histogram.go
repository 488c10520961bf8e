// Package segment 基于颜色距离的背景去除：统计主色，把和主色足够接近的像素设为透明。
package segment

import (
	"github.com/gamertechsdefi/morph-canvas/pixel"
)

// Histogram RGB 颜色直方图（忽略 alpha）
// 额外记录每个颜色第一次出现的顺序，保证主色并列时的选择是确定的
type Histogram struct {
	counts map[pixel.RGB]int
	order  []pixel.RGB
}

// NewHistogram 按行优先顺序扫描每个像素一次
func NewHistogram(b *pixel.Buffer) *Histogram {
	h := &Histogram{counts: make(map[pixel.RGB]int)}
	pix := b.Pix()
	for i := 0; i+3 < len(pix); i += 4 {
		c := pixel.RGB{R: pix[i], G: pix[i+1], B: pix[i+2]}
		n, seen := h.counts[c]
		if !seen {
			h.order = append(h.order, c)
		}
		h.counts[c] = n + 1
	}
	return h
}

// Count 某个颜色出现的次数
func (h *Histogram) Count(c pixel.RGB) int { return h.counts[c] }

// Len 不同颜色的个数
func (h *Histogram) Len() int { return len(h.order) }

// Dominant 出现次数最多的颜色；次数相同时取扫描中最先出现的那个
// 空直方图返回白色、次数 0
func (h *Histogram) Dominant() (pixel.RGB, int) {
	dominant := pixel.RGB{R: 255, G: 255, B: 255}
	maxCount := 0
	for _, c := range h.order {
		if n := h.counts[c]; n > maxCount {
			dominant, maxCount = c, n
		}
	}
	return dominant, maxCount
}

// DominantColor 直接返回 b 的主色
func DominantColor(b *pixel.Buffer) pixel.RGB {
	c, _ := NewHistogram(b).Dominant()
	return c
}
