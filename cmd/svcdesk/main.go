package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/config"
	"github.com/spec-kit/servicedesk-analytics/internal/observability"
	"github.com/spec-kit/servicedesk-analytics/internal/persistence"
	"github.com/spec-kit/servicedesk-analytics/internal/pipeline"
	"github.com/spec-kit/servicedesk-analytics/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "svcdesk",
		Short: "Service desk ticket analytics pipeline",
		Long: `svcdesk runs a batch analytics pipeline over IT service desk tickets:
synthetic data generation, cleaning, feature engineering, KPI reporting,
volume forecasting, root-cause analysis, BI export and chart rendering.

Each stage reads the files written by its upstream stage, so stages can
be run one at a time or end to end with "svcdesk run". Configuration
comes from environment variables (a .env file is honored).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newGenerateCommand(),
		newCleanCommand(),
		newEngineerCommand(),
		newExploreCommand(),
		newForecastCommand(),
		newRootCauseCommand(),
		newPowerBICommand(),
		newChartsCommand(),
		newReportCommand(),
		newLoadCommand(),
		newPublishCommand(),
		newRunCommand(),
	)
	return root
}

// app bundles the wired pipeline for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	runner  *pipeline.Runner
	cleanup []func()
}

// newApp wires configuration, logging and the file-based pipeline.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.cleanup = append(a.cleanup, func() { _ = logger.Sync() })
	a.runner = pipeline.New(cfg, pipeline.Dependencies{}, logger)
	return a, nil
}

// newConnectedApp additionally dials the export sinks; unconfigured
// sinks are skipped, not errors.
func newConnectedApp(ctx context.Context) (*app, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}

	deps := pipeline.Dependencies{}

	database, err := persistence.NewPostgres(ctx, a.cfg.Postgres, a.logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.cleanup = append(a.cleanup, database.Close)
	if pool := database.PoolHandle(); pool != nil {
		deps.Warehouse = repository.NewWarehouseRepository(pool)
	}

	cache := persistence.NewRedis(a.cfg.Redis, a.logger)
	a.cleanup = append(a.cleanup, cache.Close)
	if a.cfg.Redis.Enabled() {
		deps.Snapshots = repository.NewKPISnapshotRepository(cache.Client, a.cfg.Redis.SnapshotTTL())
	}

	a.runner = pipeline.New(a.cfg, deps, a.logger)
	return a, nil
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}
