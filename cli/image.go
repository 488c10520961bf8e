package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gamertechsdefi/morph-canvas/compose"
	"github.com/gamertechsdefi/morph-canvas/config"
	"github.com/gamertechsdefi/morph-canvas/pipeline"
	"github.com/gamertechsdefi/morph-canvas/pixel"
	"github.com/gamertechsdefi/morph-canvas/util"
)

func newRemoveCmd(cfg *config.Config) *cobra.Command {
	var (
		out     string
		method  string
		maxSize int
		trim    bool
		square  bool
		keep    bool
	)

	cmd := &cobra.Command{
		Use:   "remove <image|url>",
		Short: "Remove the background of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer util.Trace("remove background")()

			mode, err := pipeline.ParseMode(method)
			if err != nil {
				return err
			}
			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			data, err := util.ReadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if maxSize > 0 {
				if data, err = shrink(data, maxSize); err != nil {
					return err
				}
			}

			result, err := removeBackground(cmd, p, data, mode, keep)
			if err != nil {
				return err
			}
			if trim || square {
				if result, err = p.Trim(result, compose.TrimOptions{Square: square}); err != nil {
					return err
				}
			}
			return util.WriteImage(out, result)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "output.png", `output PNG path ("-" for stdout)`)
	cmd.Flags().StringVarP(&method, "method", "m", string(pipeline.ModeRobust), "removal method: robust, ai, simple")
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "downscale so the longest side is at most this many pixels (0 = keep)")
	cmd.Flags().BoolVar(&trim, "trim", false, "crop to the subject")
	cmd.Flags().BoolVar(&square, "square", false, "crop to a square centred on the subject")
	cmd.Flags().BoolVar(&keep, "keep-alpha", false, "skip removal when the input already has transparency")
	return cmd
}

func removeBackground(cmd *cobra.Command, p *pipeline.Pipeline, data []byte, mode pipeline.Mode, keepAlpha bool) ([]byte, error) {
	if keepAlpha {
		img, err := pixel.Decode(data)
		if err != nil {
			return nil, err
		}
		// 已经有透明信息就认为是抠好的图
		if img.HasAlpha() {
			slog.Info("input already has transparency, skipping removal")
			return pixel.Encode(img)
		}
	}

	res, err := p.Remove(cmd.Context(), data, mode)
	if err != nil {
		return nil, err
	}
	slog.Info("background removed", "method", res.Method)
	return res.Data, nil
}

// shrink 输入过大时先等比缩小，减少 AI 后端和颜色抠图的开销
func shrink(data []byte, maxSize int) ([]byte, error) {
	img, err := pixel.Decode(data)
	if err != nil {
		return nil, err
	}
	small, err := pixel.ResizeWithinMax(img, maxSize, pixel.Lanczos3)
	if err != nil {
		return nil, err
	}
	if small == img {
		return data, nil
	}
	return pixel.Encode(small)
}

func newCompositeCmd(cfg *config.Config) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "composite <foreground> <background>",
		Short: "Composite a foreground with transparency onto a background",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer util.Trace("composite")()

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			fg, err := util.ReadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			bg, err := util.ReadImage(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			result, err := p.ApplyBackground(fg, bg)
			if err != nil {
				return err
			}
			return util.WriteImage(out, result)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "output.png", `output PNG path ("-" for stdout)`)
	return cmd
}

func newTintCmd(cfg *config.Config) *cobra.Command {
	var (
		out    string
		color  string
		factor float64
	)

	cmd := &cobra.Command{
		Use:   "tint <image>",
		Short: "Blend a uniform color into the visible pixels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rgb, err := pixel.ParseRGB(color)
			if err != nil {
				return err
			}
			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			data, err := util.ReadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			result, err := p.ApplyTint(data, compose.TintSpec{Color: rgb, Factor: factor})
			if err != nil {
				return err
			}
			return util.WriteImage(out, result)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "output.png", `output PNG path ("-" for stdout)`)
	cmd.Flags().StringVar(&color, "color", compose.DefaultTint.Color.String(), "tint color as r,g,b or #rrggbb")
	cmd.Flags().Float64Var(&factor, "factor", compose.DefaultTint.Factor, "tint strength in [0,1]")
	return cmd
}

func newTrimCmd(cfg *config.Config) *cobra.Command {
	var (
		out       string
		threshold float64
		square    bool
	)

	cmd := &cobra.Command{
		Use:   "trim <image>",
		Short: "Crop transparent borders around the subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 || threshold >= 1 {
				return fmt.Errorf("threshold must be within [0, 1)")
			}
			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			data, err := util.ReadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			result, err := p.Trim(data, compose.TrimOptions{Threshold: threshold, Square: square})
			if err != nil {
				return err
			}
			return util.WriteImage(out, result)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "output.png", `output PNG path ("-" for stdout)`)
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "alpha threshold in [0,1) for subject pixels")
	cmd.Flags().BoolVar(&square, "square", false, "crop to a square centred on the subject")
	return cmd
}
