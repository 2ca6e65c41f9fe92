package services

import (
	"context"
	"fmt"
	"log/slog"

	"ops/internal/core"
	"ops/internal/storage"
)

// FiscalYearPublisher announces that a CAN fiscal-year snapshot changed.
type FiscalYearPublisher interface {
	PublishFiscalYearChanged(ctx context.Context, id int64, fiscalYear int) error
	Close() error
}

// LedgerService wraps the repository and publishes change events for
// fiscal-year snapshot writes. Every other operation goes straight to storage.
type LedgerService struct {
	*storage.SQLiteRepository
	publisher FiscalYearPublisher
}

// NewLedgerService builds the service. publisher may be nil, in which case
// no events are sent.
func NewLedgerService(repo *storage.SQLiteRepository, publisher FiscalYearPublisher) *LedgerService {
	return &LedgerService{
		SQLiteRepository: repo,
		publisher:        publisher,
	}
}

// CreateCANFiscalYear saves the snapshot, then announces it.
func (s *LedgerService) CreateCANFiscalYear(ctx context.Context, f core.CANFiscalYear) (core.CANFiscalYear, error) {
	created, err := s.SQLiteRepository.CreateCANFiscalYear(ctx, f)
	if err != nil {
		return core.CANFiscalYear{}, fmt.Errorf("save CAN fiscal year: %w", err)
	}
	s.announce(ctx, created)
	return created, nil
}

// UpdateCANFiscalYear saves the snapshot, then announces it.
func (s *LedgerService) UpdateCANFiscalYear(ctx context.Context, f core.CANFiscalYear) (core.CANFiscalYear, error) {
	updated, err := s.SQLiteRepository.UpdateCANFiscalYear(ctx, f)
	if err != nil {
		return core.CANFiscalYear{}, fmt.Errorf("update CAN fiscal year: %w", err)
	}
	s.announce(ctx, updated)
	return updated, nil
}

// announce never fails the write: the snapshot is already committed.
func (s *LedgerService) announce(ctx context.Context, f core.CANFiscalYear) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping fiscal year change", "id", f.ID)
		return
	}
	if err := s.publisher.PublishFiscalYearChanged(ctx, f.ID, f.FiscalYear); err != nil {
		slog.ErrorContext(ctx, "Failed to publish fiscal year change",
			"id", f.ID,
			"fiscal_year", f.FiscalYear,
			"error", err)
	}
}

// Close closes storage and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.SQLiteRepository != nil {
		if err := s.SQLiteRepository.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
