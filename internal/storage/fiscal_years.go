package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ops/internal/core"
	applog "ops/internal/log"
)

const (
	entityCANFiscalYear  = "CAN fiscal year"
	canFiscalYearColumns = "id, can_id, fiscal_year, amount_available, total_fiscal_year_funding, potential_additional_funding, notes"
)

// CreateCANFiscalYear stores a snapshot. A second snapshot for the same CAN
// and fiscal year fails with core.ErrUniqueness.
func (r *SQLiteRepository) CreateCANFiscalYear(ctx context.Context, f core.CANFiscalYear) (core.CANFiscalYear, error) {
	if err := f.Validate(); err != nil {
		return core.CANFiscalYear{}, err
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO can_fiscal_years (can_id, fiscal_year, amount_available, total_fiscal_year_funding, potential_additional_funding, notes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			f.CANID, f.FiscalYear, f.AmountAvailable, f.TotalFiscalYearFunding, f.PotentialAdditionalFunding, f.Notes)
		if err != nil {
			return fmt.Errorf("create CAN fiscal year: %w", mapWriteError(err, "can_id"))
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("CAN fiscal year id: %w", err)
		}
		return replaceLinks(ctx, tx, tableCANFiscalYearLeads, "can_fiscal_year_id", "person_id", f.ID, f.CANLeadIDs, "can_lead_ids")
	})
	if err != nil {
		return core.CANFiscalYear{}, err
	}
	f.CANLeadIDs = idsOrEmpty(dedupeIDs(f.CANLeadIDs))

	storageLogger().InfoContext(ctx, "CAN fiscal year created", "id", f.ID, applog.FieldCANID, f.CANID, applog.FieldFiscalYear, f.FiscalYear)
	return f, nil
}

func (r *SQLiteRepository) GetCANFiscalYear(ctx context.Context, id int64) (core.CANFiscalYear, error) {
	var f core.CANFiscalYear
	err := r.db.GetContext(ctx, &f, `SELECT `+canFiscalYearColumns+` FROM can_fiscal_years WHERE id = ?`, id)
	if err != nil {
		return core.CANFiscalYear{}, mapGetError(err, entityCANFiscalYear, id)
	}
	leads, err := linkedIDs(ctx, r.db, tableCANFiscalYearLeads, "can_fiscal_year_id", "person_id", id)
	if err != nil {
		return core.CANFiscalYear{}, err
	}
	f.CANLeadIDs = leads
	return f, nil
}

func (r *SQLiteRepository) ListCANFiscalYears(ctx context.Context) ([]core.CANFiscalYear, error) {
	return r.selectCANFiscalYears(ctx, `SELECT `+canFiscalYearColumns+` FROM can_fiscal_years ORDER BY id`)
}

// ListCANFiscalYearsForYear returns every snapshot of fy ordered by id.
func (r *SQLiteRepository) ListCANFiscalYearsForYear(ctx context.Context, fy int) ([]core.CANFiscalYear, error) {
	return r.selectCANFiscalYears(ctx,
		`SELECT `+canFiscalYearColumns+` FROM can_fiscal_years WHERE fiscal_year = ? ORDER BY id`, fy)
}

func (r *SQLiteRepository) selectCANFiscalYears(ctx context.Context, query string, args ...any) ([]core.CANFiscalYear, error) {
	years := []core.CANFiscalYear{}
	if err := r.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, fmt.Errorf("list CAN fiscal years: %w", err)
	}
	links, err := allLinks(ctx, r.db, tableCANFiscalYearLeads, "can_fiscal_year_id", "person_id")
	if err != nil {
		return nil, err
	}
	for i := range years {
		years[i].CANLeadIDs = idsOrEmpty(links[years[i].ID])
	}
	return years, nil
}

func (r *SQLiteRepository) UpdateCANFiscalYear(ctx context.Context, f core.CANFiscalYear) (core.CANFiscalYear, error) {
	if err := f.Validate(); err != nil {
		return core.CANFiscalYear{}, err
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE can_fiscal_years
			 SET can_id = ?, fiscal_year = ?, amount_available = ?, total_fiscal_year_funding = ?, potential_additional_funding = ?, notes = ?
			 WHERE id = ?`,
			f.CANID, f.FiscalYear, f.AmountAvailable, f.TotalFiscalYearFunding, f.PotentialAdditionalFunding, f.Notes, f.ID)
		if err != nil {
			return fmt.Errorf("update CAN fiscal year: %w", mapWriteError(err, "can_id"))
		}
		if err := checkAffected(res, entityCANFiscalYear, f.ID); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, tableCANFiscalYearLeads, "can_fiscal_year_id", "person_id", f.ID, f.CANLeadIDs, "can_lead_ids")
	})
	if err != nil {
		return core.CANFiscalYear{}, err
	}
	f.CANLeadIDs = idsOrEmpty(dedupeIDs(f.CANLeadIDs))
	return f, nil
}

func (r *SQLiteRepository) DeleteCANFiscalYear(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, tableCANFiscalYears, entityCANFiscalYear, id)
}
