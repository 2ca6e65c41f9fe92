package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ops/internal/amqp"
	"ops/internal/core"
	applog "ops/internal/log"
	"ops/internal/sheets"
)

// ReportSource assembles report rows from the ledger.
type ReportSource interface {
	FiscalYearReportRow(ctx context.Context, id int64) (core.FiscalYearReportRow, error)
	FiscalYearReport(ctx context.Context, fiscalYear int) ([]core.FiscalYearReportRow, error)
}

// ExportWorker keeps the spreadsheet copy of the CAN fiscal-year report in
// step with the ledger.
type ExportWorker struct {
	source     ReportSource
	writer     sheets.ReportWriter
	fiscalYear int
	now        func() time.Time
}

// NewExportWorker builds the worker. A fiscalYear of 0 exports the current
// fiscal year at the time of each run.
func NewExportWorker(source ReportSource, writer sheets.ReportWriter, fiscalYear int) *ExportWorker {
	return &ExportWorker{
		source:     source,
		writer:     writer,
		fiscalYear: fiscalYear,
		now:        time.Now,
	}
}

// HandleFiscalYearChanged writes the report row of one snapshot. A snapshot
// deleted after the event was sent is skipped.
func (w *ExportWorker) HandleFiscalYearChanged(ctx context.Context, msg *amqp.FiscalYearChangedMessage) error {
	logger := exportLogger()
	logger.InfoContext(ctx, "Processing fiscal year change",
		applog.FieldEntityID, msg.ID,
		applog.FieldFiscalYear, msg.FiscalYear)

	row, err := w.source.FiscalYearReportRow(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		logger.WarnContext(ctx, "CAN fiscal year no longer exists, skipping export", applog.FieldEntityID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("build report row: %w", err)
	}

	ref, err := w.writer.WriteFiscalYearRow(ctx, row)
	if err != nil {
		return fmt.Errorf("write report row: %w", err)
	}

	logger.InfoContext(ctx, "Exported CAN fiscal year",
		applog.FieldEntityID, row.ID,
		applog.FieldFiscalYear, row.FiscalYear,
		applog.FieldSheetsRef, ref)
	return nil
}

// ExportFiscalYear rewrites the whole report sheet of the configured year.
func (w *ExportWorker) ExportFiscalYear(ctx context.Context) error {
	fy := w.targetFiscalYear()
	rows, err := w.source.FiscalYearReport(ctx, fy)
	if err != nil {
		return fmt.Errorf("build fiscal year %d report: %w", fy, err)
	}
	if err := w.writer.ReplaceFiscalYear(ctx, fy, rows); err != nil {
		return fmt.Errorf("replace fiscal year %d report: %w", fy, err)
	}

	exportLogger().InfoContext(ctx, "Fiscal year report exported", applog.FieldFiscalYear, fy, "rows", len(rows))
	return nil
}

// RunPeriodicExport exports once immediately and then every interval until
// ctx is done. Failed runs are logged and retried on the next tick.
func (w *ExportWorker) RunPeriodicExport(ctx context.Context, interval time.Duration) error {
	if err := w.ExportFiscalYear(ctx); err != nil {
		exportLogger().ErrorContext(ctx, "Fiscal year export failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ExportFiscalYear(ctx); err != nil {
				exportLogger().ErrorContext(ctx, "Fiscal year export failed", applog.FieldError, err)
			}
		}
	}
}

func exportLogger() *slog.Logger {
	return slog.Default().With(
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpExport)
}

func (w *ExportWorker) targetFiscalYear() int {
	if w.fiscalYear > 0 {
		return w.fiscalYear
	}
	return core.FiscalYearOf(w.now())
}
