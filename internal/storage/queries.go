package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ops/internal/core"
)

// InfoForFiscalYear returns the CAN's snapshot for fy, or a
// *core.NotFoundError when the CAN has none.
func (r *SQLiteRepository) InfoForFiscalYear(ctx context.Context, canID int64, fy int) (core.CANFiscalYear, error) {
	if _, err := r.GetCAN(ctx, canID); err != nil {
		return core.CANFiscalYear{}, err
	}
	var id int64
	err := r.db.GetContext(ctx, &id, `SELECT id FROM can_fiscal_years WHERE can_id = ? AND fiscal_year = ?`, canID, fy)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CANFiscalYear{}, fmt.Errorf("CAN %d has no fiscal year %d: %w", canID, fy, core.ErrNotFound)
	}
	if err != nil {
		return core.CANFiscalYear{}, fmt.Errorf("find CAN fiscal year: %w", err)
	}
	return r.GetCANFiscalYear(ctx, id)
}

// ContractsForFiscalYear returns each contract that funds a line item from
// the CAN in fy, once, ordered by id.
func (r *SQLiteRepository) ContractsForFiscalYear(ctx context.Context, canID int64, fy int) ([]core.Contract, error) {
	if _, err := r.GetCAN(ctx, canID); err != nil {
		return nil, err
	}
	contracts := []core.Contract{}
	err := r.db.SelectContext(ctx, &contracts, `
		SELECT DISTINCT c.id, c.name
		FROM contracts c
		JOIN contract_line_items li ON li.contract_id = c.id
		JOIN contract_line_item_fiscal_years fy ON fy.line_item_id = li.id
		JOIN contract_line_item_fiscal_year_cans fc ON fc.fiscal_year_id = fy.id
		WHERE fc.can_id = ? AND fy.fiscal_year = ?
		ORDER BY c.id`, canID, fy)
	if err != nil {
		return nil, fmt.Errorf("contracts for fiscal year: %w", err)
	}
	if err := r.attachContractCANs(ctx, contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// ContractResearchAreas lists the nicknames of the contract's CANs in the
// order they were linked.
func (r *SQLiteRepository) ContractResearchAreas(ctx context.Context, contractID int64) ([]string, error) {
	c, err := r.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	cans, err := r.CANsByIDs(ctx, c.CANIDs)
	if err != nil {
		return nil, err
	}
	return core.ResearchAreas(cans), nil
}

// ContributionByCANForFY sums what the CAN funds across the contract's line
// items in fy. Zero when nothing matches.
func (r *SQLiteRepository) ContributionByCANForFY(ctx context.Context, contractID, canID int64, fy int) (core.Money, error) {
	if _, err := r.GetContract(ctx, contractID); err != nil {
		return core.Money{}, err
	}
	rows := []core.ContractLineItemFiscalYearCAN{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT fc.id, fc.fiscal_year_id, fc.can_id, fc.funding
		FROM contract_line_item_fiscal_year_cans fc
		JOIN contract_line_item_fiscal_years fy ON fy.id = fc.fiscal_year_id
		JOIN contract_line_items li ON li.id = fy.line_item_id
		WHERE li.contract_id = ? AND fy.fiscal_year = ? AND fc.can_id = ?
		ORDER BY fc.id`, contractID, fy, canID)
	if err != nil {
		return core.Money{}, fmt.Errorf("contribution by CAN: %w", err)
	}
	return core.Contribution(rows, canID), nil
}

// LineItemsForFY returns the contract's line-item fiscal years for fy.
func (r *SQLiteRepository) LineItemsForFY(ctx context.Context, contractID int64, fy int) ([]core.ContractLineItemFiscalYear, error) {
	if _, err := r.GetContract(ctx, contractID); err != nil {
		return nil, err
	}
	years := []core.ContractLineItemFiscalYear{}
	err := r.db.SelectContext(ctx, &years,
		lineItemFiscalYearSelect+` WHERE li.contract_id = ? AND fy.fiscal_year = ? ORDER BY fy.id`, contractID, fy)
	if err != nil {
		return nil, fmt.Errorf("line items for fiscal year: %w", err)
	}
	return years, nil
}

// LineItemFiscalYearForCAN returns the funding row a CAN contributes to one
// line-item fiscal year.
func (r *SQLiteRepository) LineItemFiscalYearForCAN(ctx context.Context, fiscalYearID, canID int64) (core.ContractLineItemFiscalYearCAN, error) {
	f, err := r.GetContractLineItemFiscalYear(ctx, fiscalYearID)
	if err != nil {
		return core.ContractLineItemFiscalYearCAN{}, err
	}
	rows := []core.ContractLineItemFiscalYearCAN{}
	err = r.db.SelectContext(ctx, &rows,
		`SELECT `+lineItemFiscalYearCANColumns+` FROM contract_line_item_fiscal_year_cans
		 WHERE fiscal_year_id = ? AND can_id = ? ORDER BY id`, fiscalYearID, canID)
	if err != nil {
		return core.ContractLineItemFiscalYearCAN{}, fmt.Errorf("line item funding for CAN: %w", err)
	}
	row, ok := f.ForCAN(rows, canID)
	if !ok {
		return core.ContractLineItemFiscalYearCAN{}, fmt.Errorf("CAN %d does not fund line item fiscal year %d: %w",
			canID, fiscalYearID, core.ErrNotFound)
	}
	return row, nil
}
