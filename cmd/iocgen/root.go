package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tile_iocgen/internal/config"
	"tile_iocgen/internal/device"
	"tile_iocgen/internal/httpapi"
	"tile_iocgen/internal/ioc"
	"tile_iocgen/internal/metrics"
	"tile_iocgen/internal/render"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "iocgen",
		Short:         "Generate templated IOC config files from the device metadata store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "iocgen.yaml", "path to the iocgen config file")

	root.AddCommand(newGenerateCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	return root
}

func loadConfig(path string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := httpapi.NewLogger(cfg.Logging.Level)

	if issues := config.Validate(cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("issue", issue).Msg("invalid configuration")
		}
		return nil, log, fmt.Errorf("invalid configuration (%d issues)", len(issues))
	}
	return cfg, log, nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (device.Store, error) {
	if cfg.Database.URL != "" {
		log.Info().Msg("using postgres metadata store")
		return device.OpenPG(ctx, cfg.Database.URL)
	}
	log.Info().Str("path", cfg.Database.Path).Msg("using file metadata store")
	return device.OpenFile(cfg.Database.Path)
}

func newGenerateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <tile>",
		Short: "Write IOC configs for every device type found in the given tile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			tile, err := cfg.Tile(args[0])
			if err != nil {
				log.Error().Err(err).Msg("nothing generated")
				return err
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			return generate(ctx, log, store, tile)
		},
	}
}

func generate(ctx context.Context, log zerolog.Logger, store device.Store, tile config.TileConfig) error {
	m := metrics.New()
	start := time.Now()
	m.IncGenerationRun()
	defer func() { m.ObserveGenerationDuration(time.Since(start)) }()

	if err := os.MkdirAll(tile.Directory, 0o755); err != nil {
		return err
	}
	written, err := render.EnsureMakefile(tile.Directory)
	if err != nil {
		return fmt.Errorf("bootstrap Makefile: %w", err)
	}
	if written {
		log.Info().Str("dir", tile.Directory).Msg("Makefile written")
	} else {
		log.Info().Str("dir", tile.Directory).Msg("found Makefile, continuing")
	}

	records, err := store.Search(ctx, tile.Name)
	if err != nil {
		return fmt.Errorf("search tile %s: %w", tile.Name, err)
	}
	log.Info().Str("tile", tile.Name).Int("records", len(records)).Msg("device records loaded")

	renderer, err := render.NewTemplateRenderer()
	if err != nil {
		return err
	}

	disp := ioc.New(log, ioc.DefaultPipelines(), renderer, render.NewDirSink(tile.Directory), m)
	summary := disp.RunAll(records)

	for typ, n := range summary.Written {
		evt := log.Info()
		if err, failed := summary.Failed[typ]; failed {
			evt = log.Error().Err(err)
		}
		evt.Str("device_type", string(typ)).Int("files", n).Msg("device type finished")
	}
	log.Info().
		Str("tile", tile.Name).
		Int("total_files", summary.TotalWritten()).
		Int("failed_types", len(summary.Failed)).
		Msg("generation run complete")

	if len(summary.Failed) > 0 {
		return errors.New("one or more device types failed; see diagnostics above")
	}
	return nil
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only preview and metrics API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			renderer, err := render.NewTemplateRenderer()
			if err != nil {
				return err
			}

			m := metrics.New()
			disp := ioc.New(log, ioc.DefaultPipelines(), renderer, nil, m)
			h := httpapi.NewHandler(log, cfg, store, disp, m)
			srv := &http.Server{
				Addr:              cfg.API.Addr,
				Handler:           h.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.API.Addr).Msg("iocgen listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			log.Info().Msg("shutdown complete")
			return nil
		},
	}
}
