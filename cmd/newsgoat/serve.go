package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsGoat/internal/api"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/observability"
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve searches over HTTP",
		Long: `Serve exposes GET /api/search?q=&sort=&page=, GET /api/health,
GET /api/stats and the Prometheus metrics endpoint.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "page transport: http, browser")
	cmd.Flags().Uint64VarP(&maxPages, "max-pages", "m", 0, "page cap for full searches (0 = until exhausted)")
	cmd.Flags().BoolVar(&prefetch, "prefetch", false, "fetch the next page while extracting the current one")

	return cmd
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()
	eng.SetFetcher(f)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		eng.SetMetrics(metrics)
	}

	srv, err := api.NewServer(cfg, eng, metrics, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("serving", "addr", cfg.API.Addr, "fetcher", f.Type(), "metrics", cfg.Metrics.Enabled)
	return srv.Run(ctx)
}
