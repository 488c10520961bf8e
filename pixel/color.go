package pixel

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRGB 支持 "r,g,b" 和 "#rrggbb" 两种写法
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 {
			return RGB{}, fmt.Errorf("invalid hex color %q", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("invalid color %q, want r,g,b", s)
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}

func (c RGB) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}
