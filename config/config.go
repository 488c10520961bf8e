// Package config 服务和命令行共用的配置。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/gamertechsdefi/morph-canvas/pixel"
	"github.com/gamertechsdefi/morph-canvas/rembg"
	"github.com/gamertechsdefi/morph-canvas/segment"
)

// EnvPrefix 环境变量前缀，例如 MORPH_AI_BACKEND 对应 --ai-backend
const EnvPrefix = "MORPH_"

type Config struct {
	LogLevel string

	AIBackend string
	AIURL     string
	AITimeout time.Duration

	Tolerance     float64
	Interpolation string
	MaxPixels     int

	Addr          string
	AssetsDir     string
	OutputDir     string
	Retention     time.Duration
	PruneSchedule string
	MaxUploadMB   int64
}

func Default() *Config {
	return &Config{
		LogLevel:      "info",
		AIBackend:     rembg.BackendNone,
		AITimeout:     60 * time.Second,
		Tolerance:     segment.DefaultTolerance,
		Interpolation: pixel.Bilinear.String(),
		MaxPixels:     pixel.DefaultMaxPixels,
		Addr:          ":8080",
		AssetsDir:     "public/assets",
		Retention:     24 * time.Hour,
		PruneSchedule: "@every 10m",
		MaxUploadMB:   20,
	}
}

// BindFlags 全局参数，serve 相关的参数在 BindServeFlags
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.AIBackend, "ai-backend", c.AIBackend, "AI background removal backend: comfyui, rembg, none")
	fs.StringVar(&c.AIURL, "ai-url", c.AIURL, "base URL of the AI backend")
	fs.DurationVar(&c.AITimeout, "ai-timeout", c.AITimeout, "time limit for one AI removal call (0 = no limit)")
	fs.Float64Var(&c.Tolerance, "tolerance", c.Tolerance, "color distance tolerance of the fallback removal")
	fs.IntVar(&c.MaxPixels, "max-pixels", c.MaxPixels, "reject input images with more pixels than this")
	fs.StringVar(&c.Interpolation, "interpolation", c.Interpolation, "background resize interpolation: nearest, bilinear, lanczos3, catmullrom")
}

func (c *Config) BindServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.StringVar(&c.AssetsDir, "assets", c.AssetsDir, "background assets directory")
	fs.StringVar(&c.OutputDir, "output-dir", c.OutputDir, "keep processed images in this directory (empty = disabled)")
	fs.DurationVar(&c.Retention, "retention", c.Retention, "how long kept images are retained")
	fs.StringVar(&c.PruneSchedule, "prune-schedule", c.PruneSchedule, "cron schedule of the output pruning job")
	fs.Int64Var(&c.MaxUploadMB, "max-upload-mb", c.MaxUploadMB, "maximum upload size in MiB")
}

// ApplyEnv 对没有在命令行显式设置的参数，使用 MORPH_* 环境变量
func ApplyEnv(fs *pflag.FlagSet, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		key := EnvPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v, ok := lookup(key); ok {
			if err := fs.Set(f.Name, v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	})
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := rembg.NewBackend(c.AIBackend, c.AIURL); err != nil {
		return err
	}
	if c.AITimeout < 0 {
		return fmt.Errorf("ai-timeout must not be negative")
	}
	if _, err := segment.NewSegmenter(c.Tolerance); err != nil {
		return err
	}
	if _, err := pixel.ParseInterpolation(c.Interpolation); err != nil {
		return err
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("max-pixels must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max-upload-mb must be positive")
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// LogValue 打日志时只输出和抠图相关的配置
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("ai_backend", c.AIBackend),
		slog.String("ai_url", c.AIURL),
		slog.Duration("ai_timeout", c.AITimeout),
		slog.Float64("tolerance", c.Tolerance),
		slog.String("interpolation", c.Interpolation),
		slog.Int("max_pixels", c.MaxPixels),
	)
}
