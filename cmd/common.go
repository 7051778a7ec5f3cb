package cmd

import (
	"context"
	"log/slog"
	_ "net/http/pprof" // nolint:gosec // profiling endpoint listens on localhost.
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/equinix-labs/otel-init-go/otelinit"
	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/log"
	"github.com/ucs-toolbox/podcfg/internal/metrics"
	"github.com/ucs-toolbox/podcfg/internal/model"
	"github.com/ucs-toolbox/podcfg/internal/profiling"
	"github.com/ucs-toolbox/podcfg/internal/provision"
	"github.com/ucs-toolbox/podcfg/internal/store"
	"github.com/ucs-toolbox/podcfg/internal/version"
	"github.com/ucs-toolbox/podcfg/internal/workbook"
)

// initRun loads the configuration and builds the repository every online
// command needs. The API client is constructed before any workbook work so
// credential problems surface immediately.
func initRun(ctx context.Context) (context.Context, *config.Configuration, store.Repository, func(), error) {
	cfg, err := config.Load(args)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return ctx, nil, nil, nil, err
	}

	slog.Info("Configuration loaded", cfg.AsLogFields()...)

	log.SetLevel(cfg.LogLevel)

	// serve metrics endpoint
	metrics.ListenAndServe(cfg.MetricsAddress)
	version.ExportBuildInfoMetric()

	if cfg.EnableProfiling {
		profiling.Enable()
	}

	ctx, otelShutdown := otelinit.InitOpenTelemetry(ctx, model.AppName)

	if err := cfg.ValidateAPIAccess(); err != nil {
		slog.Error("API access not configured", "error", err)
		otelShutdown(ctx)

		return ctx, nil, nil, nil, err
	}

	repository, err := store.NewRepository(cfg, log.NewLogrusLogger(cfg.LogLevel))
	if err != nil {
		slog.Error("Failed to create repository", "error", err)
		otelShutdown(ctx)

		return ctx, nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	shutdown := func() {
		stop()
		otelShutdown(ctx)
	}

	return ctx, cfg, repository, shutdown, nil
}

// openWorkbook opens the configured workbook for a replay command.
func openWorkbook(cfg *config.Configuration) (*workbook.Workbook, error) {
	wb, err := workbook.Open(cfg.Workbook)
	if err != nil {
		slog.Error("Failed to open workbook", "path", cfg.Workbook, "error", err)
		return nil, err
	}

	return wb, nil
}

// reportResult logs the run summary and turns row failures into a non-zero
// exit for the caller.
func reportResult(result *provision.Result) error {
	slog.With(result.AsLogFields()...).Info("Run summary")

	manual := result.ManualProfiles()
	if len(manual) > 0 {
		names := make([]string, len(manual))
		for i := range manual {
			names[i] = manual[i].Name
		}

		slog.Warn("Create these profiles manually in the Intersight UI", "profiles", strings.Join(names, ", "))
	}

	if failed := result.Failed(); failed > 0 {
		return errors.Errorf("%d rows failed", failed)
	}

	return nil
}

func runExit(err error) {
	if err != nil {
		os.Exit(1)
	}
}
