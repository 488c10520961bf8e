// Package cli 命令行入口：serve 启动 HTTP 服务，其它子命令直接处理本地图片。
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gamertechsdefi/morph-canvas/config"
	"github.com/gamertechsdefi/morph-canvas/pipeline"
	"github.com/gamertechsdefi/morph-canvas/pixel"
	"github.com/gamertechsdefi/morph-canvas/rembg"
)

func NewRootCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:           "morph-canvas",
		Short:         "Remove photo backgrounds and composite the subject onto a new background",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ApplyEnv(cmd.Flags(), nil); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			level, _ := config.ParseLevel(cfg.LogLevel)
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	cfg.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCmd(cfg),
		newRemoveCmd(cfg),
		newCompositeCmd(cfg),
		newTintCmd(cfg),
		newTrimCmd(cfg),
	)
	return cmd
}

// Execute 执行命令，出错时打印到 stderr 并返回非零退出码
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}

func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	backend, err := rembg.NewBackend(cfg.AIBackend, cfg.AIURL)
	if err != nil {
		return nil, err
	}
	interp, err := pixel.ParseInterpolation(cfg.Interpolation)
	if err != nil {
		return nil, err
	}

	slog.Debug("pipeline config", "config", cfg)
	return pipeline.New(
		rembg.NewAdapter(cfg.AIBackend, backend, cfg.AITimeout),
		pipeline.WithTolerance(cfg.Tolerance),
		pipeline.WithInterpolation(interp),
		pipeline.WithMaxPixels(cfg.MaxPixels),
		pipeline.WithLogger(slog.Default()),
	)
}
