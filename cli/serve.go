package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gamertechsdefi/morph-canvas/assets"
	"github.com/gamertechsdefi/morph-canvas/config"
	"github.com/gamertechsdefi/morph-canvas/output"
	"github.com/gamertechsdefi/morph-canvas/server"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			var archive *output.Archive
			if cfg.OutputDir != "" {
				archive, err = output.NewArchive(cfg.OutputDir, cfg.Retention)
				if err != nil {
					return err
				}
				if err := archive.StartPruning(cfg.PruneSchedule); err != nil {
					return err
				}
				defer archive.Stop()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("starting server", "config", cfg, "assets", cfg.AssetsDir, "output", cfg.OutputDir)
			srv := server.New(p, assets.NewStore(cfg.AssetsDir), archive, cfg.MaxUploadMB<<20)
			return srv.Run(ctx, cfg.Addr)
		},
	}
	cfg.BindServeFlags(cmd.Flags())
	return cmd
}
