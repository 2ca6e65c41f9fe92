// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/ops and cmd/ops-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ops/internal/amqp"
	"ops/internal/config"
	applog "ops/internal/log"
	"ops/internal/services"
	"ops/internal/sheets"
	gsheet "ops/internal/sheets/google"
	mem "ops/internal/sheets/memory"
	"ops/internal/storage"
)

// SetupLogger initializes structured logging for a component and sets it as
// the default logger.
func SetupLogger(level, component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		// The configured logger depends on LOG_LEVEL, so this goes to the bootstrap logger.
		SetupLogger("info", applog.ComponentApp).Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			"path", dbPath)
		os.Exit(1)
	}
	return sqliteRepo
}

// InitAMQP connects to the broker. It returns nil when no AMQP URL is set.
func InitAMQP(cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP broker: %w", err)
	}
	return client, nil
}

// InitPublisher returns the change-event publisher for the web server. An
// unreachable broker disables events instead of stopping the server.
func InitPublisher(logger *applog.Logger, cfg *config.Config) services.FiscalYearPublisher {
	client, err := InitAMQP(cfg)
	if err != nil {
		logger.Warn("AMQP unavailable, fiscal year change events disabled",
			applog.FieldError, err,
			"exchange", cfg.AMQPExchange)
		return nil
	}
	if client == nil {
		logger.Info("AMQP not configured, fiscal year change events disabled")
		return nil
	}
	logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// InitReportWriter picks Google Sheets when a spreadsheet is configured and
// the in-memory writer otherwise.
func InitReportWriter(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.ReportWriter, error) {
	if !cfg.ReportToSheets() {
		logger.Info("No spreadsheet configured, keeping the report in memory")
		return mem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets report writer ready", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
