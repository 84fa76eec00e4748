package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wind-grid-etl/internal/adapter/edr"
	"github.com/couchcryptid/wind-grid-etl/internal/adapter/file"
	"github.com/couchcryptid/wind-grid-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/wind-grid-etl/internal/adapter/kafka"
	"github.com/couchcryptid/wind-grid-etl/internal/config"
	"github.com/couchcryptid/wind-grid-etl/internal/observability"
	"github.com/couchcryptid/wind-grid-etl/internal/pipeline"
	"github.com/couchcryptid/wind-grid-etl/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var source pipeline.Source
	if cfg.ForecastFile != "" {
		source = edr.NewFileSource(cfg.ForecastFile, logger)
		logger.Info("reading forecast from file", "path", cfg.ForecastFile)
	} else {
		source = edr.NewClient(cfg, metrics, logger)
	}

	// The file sink runs first so a broker outage never costs the local copy.
	loaders := []pipeline.Loader{file.NewWriter(cfg, metrics, logger)}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(source, loaders, cfg.Grid, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exitCode int
	if cfg.RunInterval > 0 {
		exitCode = serve(ctx, cfg, p, metrics, logger)
	} else if err := p.Run(ctx); err != nil {
		exitCode = 1
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	stop()
	os.Exit(exitCode)
}

// serve runs the pipeline on RUN_INTERVAL with the ops HTTP server until a
// shutdown signal arrives.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, metrics *observability.Metrics, logger *slog.Logger) int {
	sched := scheduler.New(p, cfg.RunInterval, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, sched, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler start error", "error", err)
		return 1
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	sched.Stop()

	logger.Info("shutdown complete")
	return 0
}
