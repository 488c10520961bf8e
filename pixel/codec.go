package pixel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	"image/png"

	_ "golang.org/x/image/webp" // Register WebP format
)

var ErrDecode = errors.New("decode image")

// DecodeError 输入字节无法解码为图像
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode image (format: %s): %v", e.Format, e.Err)
	}
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// DefaultMaxPixels 默认允许解码的最大像素数
const DefaultMaxPixels = 64 << 20

var ErrImageTooLarge = errors.New("image too large")

// Decode 解码 PNG/JPEG/GIF/WebP，像素数上限为 DefaultMaxPixels
func Decode(data []byte) (*Buffer, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit 先读文件头里的尺寸，超过 maxPixels 时不分配像素内存；maxPixels <= 0 不限制
func DecodeLimit(data []byte, maxPixels int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: errors.New("empty image data")}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &DecodeError{Format: format, Err: fmt.Errorf("zero-sized image %dx%d", cfg.Width, cfg.Height)}
	}
	if maxPixels > 0 && cfg.Width > maxPixels/cfg.Height {
		return nil, &DecodeError{Format: format, Err: fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, &DecodeError{Format: format, Err: fmt.Errorf("zero-sized image %dx%d", b.Dx(), b.Dy())}
	}

	return adopt(img), nil
}

// Encode 编码为无损 PNG
func Encode(b *Buffer) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, b.img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}
