package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"ops/internal/cli"
	"ops/internal/config"
	applog "ops/internal/log"
	"ops/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)
	logger.Info("Starting ops-worker", applog.FieldOperation, applog.OpStartup)

	if err := run(logger, cfg); err != nil {
		logger.Error("Worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}

func run(logger *applog.Logger, cfg *config.Config) error {
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	writer, err := cli.InitReportWriter(ctx, logger, cfg)
	if err != nil {
		return err
	}
	exporter := worker.NewExportWorker(repo, writer, cfg.ExportFiscalYear)

	client, err := cli.InitAMQP(cfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if client != nil {
		defer client.Close()
		g.Go(func() error {
			return client.ConsumeFiscalYearChanges(gctx, exporter.HandleFiscalYearChanged)
		})
		logger.Info("Consuming fiscal year changes", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP not configured, relying on periodic export only")
	}

	g.Go(func() error {
		return exporter.RunPeriodicExport(gctx, cfg.ExportInterval)
	})
	logger.Info("Periodic export scheduled",
		"interval", cfg.ExportInterval,
		applog.FieldFiscalYear, cfg.ExportFiscalYear)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
