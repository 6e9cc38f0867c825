package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/docissue"
	"mercator-hq/ganymede/pkg/featuregate"
	"mercator-hq/ganymede/pkg/investigation/retention"
	"mercator-hq/ganymede/pkg/investigation/store"
	"mercator-hq/ganymede/pkg/server"
	"mercator-hq/ganymede/pkg/telemetry/health"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the investigation store HTTP API",
	Long: `Start the HTTP API with the specified configuration.

The process runs the store, the retention sweeper, a config file watcher that
feeds the feature gate on reload, and the HTTP server, and shuts all of them
down gracefully on SIGINT/SIGTERM.

Examples:
  # Start with default config
  ganymede serve

  # Start with custom config
  ganymede serve --config /etc/ganymede/config.yaml

  # Override listen address
  ganymede serve --listen 0.0.0.0:9000

  # Validate config without starting
  ganymede serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return err
	}

	if serveFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	gate := featuregate.New(cfg.Store.IsEnabled())

	storeMetrics := metrics.NewStoreMetrics(&metrics.Config{
		Enabled: cfg.Telemetry.Metrics.Enabled,
	}, nil)

	st, err := store.Open(&store.Config{
		Path:          cfg.Store.Path,
		MaxEntries:    cfg.Store.MaxEntries,
		RetentionDays: cfg.Store.RetentionDays,
		MaxFileBytes:  cfg.Store.MaxFileBytes,
		CatalogPath:   cfg.Store.CatalogPath,
	}, gate, storeMetrics)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	checker := health.New(0)
	checker.SetSnapshotSource(func() any { return st.Snapshot() })

	router := server.NewRouter(server.Deps{
		Store:       st,
		Builder:     docissue.NewBuilder(st),
		Health:      checker,
		Metrics:     storeMetrics,
		MetricsPath: metricsPath(cfg),
	})

	srv := server.New(cfg.Server, router)
	sweeper := retention.NewSweeper(st, cfg.Store.SweepSchedule)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(ctx)
	})

	g.Go(func() error {
		if err := sweeper.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	})

	// The watcher keeps the persisted gate signal and nothing else live;
	// structural settings (paths, caps) need a restart.
	if _, err := os.Stat(cfgFile); err == nil {
		watcher := config.NewWatcher(cfgFile)
		g.Go(func() error {
			return watcher.Watch(ctx, func(updated *config.Config) {
				gate.SetConfig(updated.Store.IsEnabled())
			})
		})
	}

	logger.Info("ganymede started",
		"version", Version,
		"listen", cfg.Server.ListenAddress,
		"store_path", cfg.Store.Path,
		"store_enabled", gate.Enabled(),
	)

	return g.Wait()
}

func metricsPath(cfg *config.Config) string {
	if !cfg.Telemetry.Metrics.Enabled {
		return ""
	}
	return cfg.Telemetry.Metrics.Path
}
