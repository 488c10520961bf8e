// Package pipeline 抠图与合成的入口：先试 AI 抠图，失败再用颜色距离抠图兜底。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gamertechsdefi/morph-canvas/compose"
	"github.com/gamertechsdefi/morph-canvas/pixel"
	"github.com/gamertechsdefi/morph-canvas/rembg"
	"github.com/gamertechsdefi/morph-canvas/segment"
)

// Mode 抠图方式
type Mode string

const (
	// ModeRobust 先 AI，失败后用颜色抠图
	ModeRobust Mode = "robust"
	// ModeAI 只用 AI，失败直接返回错误
	ModeAI Mode = "ai"
	// ModeSimple 只用颜色抠图
	ModeSimple Mode = "simple"
)

var ErrUnknownMode = errors.New("unknown removal method")

// ParseMode 空字符串视为 robust
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeRobust, nil
	case ModeRobust, ModeAI, ModeSimple:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

var ErrEmptyResult = errors.New("empty result")

// EmptyResultError 某一步产出了空数据，属于缺陷而不是合法的空图
type EmptyResultError struct {
	Stage string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s produced an empty result", e.Stage)
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

// Result 一次抠图的结果
type Result struct {
	Data []byte
	// Method 实际产出结果的方式，ModeAI 或 ModeSimple
	Method Mode
	// AIError robust 模式下 AI 失败的原因，仅用于诊断
	AIError error
}

type Pipeline struct {
	ai        rembg.Remover
	segmenter *segment.Segmenter
	interp    pixel.Interpolation
	maxPixels int
	logger    *slog.Logger
}

type Option func(p *Pipeline)

// WithTolerance 颜色抠图的阈值，默认 40
func WithTolerance(tolerance float64) Option {
	return func(p *Pipeline) {
		p.segmenter.Tolerance = tolerance
	}
}

// WithInterpolation 合成时缩放背景使用的插值算法，默认 Bilinear
func WithInterpolation(interp pixel.Interpolation) Option {
	return func(p *Pipeline) {
		p.interp = interp
	}
}

// WithMaxPixels 输入图片的最大像素数，<= 0 不限制
func WithMaxPixels(n int) Option {
	return func(p *Pipeline) {
		p.maxPixels = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New ai 一般是 rembg.Adapter；为 nil 时 AI 一律视为失败
func New(ai rembg.Remover, opts ...Option) (*Pipeline, error) {
	if ai == nil {
		ai = rembg.NewAdapter(rembg.BackendNone, rembg.Unavailable{}, 0)
	}
	p := &Pipeline{
		ai:        ai,
		segmenter: &segment.Segmenter{Tolerance: segment.DefaultTolerance},
		interp:    pixel.Bilinear,
		maxPixels: pixel.DefaultMaxPixels,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if _, err := segment.NewSegmenter(p.segmenter.Tolerance); err != nil {
		return nil, err
	}
	return p, nil
}

// Remove 按 mode 抠图，每一步都只尝试一次
func (p *Pipeline) Remove(ctx context.Context, data []byte, mode Mode) (*Result, error) {
	switch mode {
	case ModeRobust, ModeAI, ModeSimple:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	var aiErr error
	if mode != ModeSimple {
		out, err := p.removeAI(ctx, data)
		if err == nil {
			return &Result{Data: out, Method: ModeAI}, nil
		}
		if mode == ModeAI {
			return nil, err
		}

		aiErr = err
		p.logger.Warn("AI background removal failed, falling back to color-based removal", "error", err)
	}

	out, err := p.RemoveBackgroundSimple(data)
	if err != nil {
		return nil, err
	}
	return &Result{Data: out, Method: ModeSimple, AIError: aiErr}, nil
}

func (p *Pipeline) removeAI(ctx context.Context, data []byte) ([]byte, error) {
	out, err := p.ai.Remove(ctx, data)
	if err != nil {
		if !errors.Is(err, rembg.ErrAISegmentationFailed) {
			err = &rembg.FailedError{Reason: err.Error()}
		}
		return nil, err
	}
	if len(out) == 0 {
		return nil, &rembg.FailedError{Reason: "empty result"}
	}
	return out, nil
}

// RemoveBackgroundRobust 先 AI，失败后颜色抠图；AI 失败的原因只记日志
func (p *Pipeline) RemoveBackgroundRobust(ctx context.Context, data []byte) ([]byte, error) {
	res, err := p.Remove(ctx, data, ModeRobust)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// RemoveBackgroundAI 只用 AI，失败返回 rembg.ErrAISegmentationFailed
func (p *Pipeline) RemoveBackgroundAI(ctx context.Context, data []byte) ([]byte, error) {
	res, err := p.Remove(ctx, data, ModeAI)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// RemoveBackgroundSimple 解码 -> 颜色距离抠图 -> 编码
func (p *Pipeline) RemoveBackgroundSimple(data []byte) ([]byte, error) {
	img, err := p.decode(data)
	if err != nil {
		return nil, err
	}

	out, dominant := p.segmenter.Segment(img)
	p.logger.Debug("color-based background removal",
		"width", img.Width(), "height", img.Height(),
		"dominant", dominant, "tolerance", p.segmenter.Tolerance)

	return encode(out, "color-based removal")
}

// ApplyBackground 把前景合成到背景上，背景缩放到前景尺寸
func (p *Pipeline) ApplyBackground(foreground, background []byte) ([]byte, error) {
	fg, err := p.decode(foreground)
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}
	bg, err := p.decode(background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	out, err := compose.Composite(fg, bg, p.interp)
	if err != nil {
		return nil, err
	}
	return encode(out, "composite")
}

// ApplyTint 给不透明像素着色
func (p *Pipeline) ApplyTint(data []byte, tint compose.TintSpec) ([]byte, error) {
	img, err := p.decode(data)
	if err != nil {
		return nil, err
	}

	out, err := compose.Tint(img, tint)
	if err != nil {
		return nil, err
	}
	return encode(out, "tint")
}

// Trim 裁掉主体周围的透明区域
func (p *Pipeline) Trim(data []byte, opts compose.TrimOptions) ([]byte, error) {
	img, err := p.decode(data)
	if err != nil {
		return nil, err
	}

	out, err := compose.Trim(img, opts)
	if err != nil {
		return nil, err
	}
	return encode(out, "trim")
}

func (p *Pipeline) decode(data []byte) (*pixel.Buffer, error) {
	return pixel.DecodeLimit(data, p.maxPixels)
}

func encode(b *pixel.Buffer, stage string) ([]byte, error) {
	data, err := pixel.Encode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stage, err)
	}
	if len(data) == 0 {
		return nil, &EmptyResultError{Stage: stage}
	}
	return data, nil
}
