package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ops/internal/core"
)

const (
	entityContract              = "contract"
	entityLineItem              = "contract line item"
	entityLineItemFiscalYear    = "contract line item fiscal year"
	entityLineItemFiscalYearCAN = "contract line item fiscal year CAN"

	lineItemFiscalYearCANColumns = "id, fiscal_year_id, can_id, funding"
)

const lineItemFiscalYearSelect = `SELECT fy.id, fy.line_item_id, fy.fiscal_year, li.name AS line_item_name, li.contract_id
	FROM contract_line_item_fiscal_years fy
	JOIN contract_line_items li ON li.id = fy.line_item_id`

// CreateContract stores the contract together with its CAN links.
func (r *SQLiteRepository) CreateContract(ctx context.Context, c core.Contract) (core.Contract, error) {
	if err := c.Validate(); err != nil {
		return core.Contract{}, err
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO contracts (name) VALUES (?)`, c.Name)
		if err != nil {
			return fmt.Errorf("create contract: %w", mapWriteError(err, ""))
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("contract id: %w", err)
		}
		return replaceLinks(ctx, tx, tableContractCANs, "contract_id", "can_id", c.ID, c.CANIDs, "can_ids")
	})
	if err != nil {
		return core.Contract{}, err
	}
	c.CANIDs = idsOrEmpty(dedupeIDs(c.CANIDs))

	storageLogger().InfoContext(ctx, "Contract created", "id", c.ID, "cans", len(c.CANIDs))
	return c, nil
}

func (r *SQLiteRepository) GetContract(ctx context.Context, id int64) (core.Contract, error) {
	var c core.Contract
	if err := r.db.GetContext(ctx, &c, `SELECT id, name FROM contracts WHERE id = ?`, id); err != nil {
		return core.Contract{}, mapGetError(err, entityContract, id)
	}
	cans, err := linkedIDs(ctx, r.db, tableContractCANs, "contract_id", "can_id", id)
	if err != nil {
		return core.Contract{}, err
	}
	c.CANIDs = cans
	return c, nil
}

func (r *SQLiteRepository) ListContracts(ctx context.Context) ([]core.Contract, error) {
	contracts := []core.Contract{}
	if err := r.db.SelectContext(ctx, &contracts, `SELECT id, name FROM contracts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	if err := r.attachContractCANs(ctx, contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *SQLiteRepository) UpdateContract(ctx context.Context, c core.Contract) (core.Contract, error) {
	if err := c.Validate(); err != nil {
		return core.Contract{}, err
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE contracts SET name = ? WHERE id = ?`, c.Name, c.ID)
		if err != nil {
			return fmt.Errorf("update contract: %w", mapWriteError(err, ""))
		}
		if err := checkAffected(res, entityContract, c.ID); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, tableContractCANs, "contract_id", "can_id", c.ID, c.CANIDs, "can_ids")
	})
	if err != nil {
		return core.Contract{}, err
	}
	c.CANIDs = idsOrEmpty(dedupeIDs(c.CANIDs))
	return c, nil
}

// DeleteContract removes the contract with its line items, their fiscal
// years and per-CAN funding rows.
func (r *SQLiteRepository) DeleteContract(ctx context.Context, id int64) error {
	if err := r.deleteByID(ctx, tableContracts, entityContract, id); err != nil {
		return err
	}
	storageLogger().InfoContext(ctx, "Contract deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) attachContractCANs(ctx context.Context, contracts []core.Contract) error {
	links, err := allLinks(ctx, r.db, tableContractCANs, "contract_id", "can_id")
	if err != nil {
		return err
	}
	for i := range contracts {
		contracts[i].CANIDs = idsOrEmpty(links[contracts[i].ID])
	}
	return nil
}

func (r *SQLiteRepository) CreateContractLineItem(ctx context.Context, li core.ContractLineItem) (core.ContractLineItem, error) {
	if err := li.Validate(); err != nil {
		return core.ContractLineItem{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contract_line_items (contract_id, name) VALUES (?, ?)`, li.ContractID, li.Name)
	if err != nil {
		return core.ContractLineItem{}, fmt.Errorf("create line item: %w", mapWriteError(err, "contract_id"))
	}
	if li.ID, err = res.LastInsertId(); err != nil {
		return core.ContractLineItem{}, fmt.Errorf("line item id: %w", err)
	}
	return li, nil
}

func (r *SQLiteRepository) GetContractLineItem(ctx context.Context, id int64) (core.ContractLineItem, error) {
	var li core.ContractLineItem
	err := r.db.GetContext(ctx, &li, `SELECT id, contract_id, name FROM contract_line_items WHERE id = ?`, id)
	if err != nil {
		return core.ContractLineItem{}, mapGetError(err, entityLineItem, id)
	}
	return li, nil
}

func (r *SQLiteRepository) ListContractLineItems(ctx context.Context) ([]core.ContractLineItem, error) {
	items := []core.ContractLineItem{}
	err := r.db.SelectContext(ctx, &items, `SELECT id, contract_id, name FROM contract_line_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) UpdateContractLineItem(ctx context.Context, li core.ContractLineItem) (core.ContractLineItem, error) {
	if err := li.Validate(); err != nil {
		return core.ContractLineItem{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE contract_line_items SET contract_id = ?, name = ? WHERE id = ?`, li.ContractID, li.Name, li.ID)
	if err != nil {
		return core.ContractLineItem{}, fmt.Errorf("update line item: %w", mapWriteError(err, "contract_id"))
	}
	if err := checkAffected(res, entityLineItem, li.ID); err != nil {
		return core.ContractLineItem{}, err
	}
	return li, nil
}

func (r *SQLiteRepository) DeleteContractLineItem(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, tableLineItems, entityLineItem, id)
}

// CreateContractLineItemFiscalYear records a line item's presence in a
// fiscal year. The returned value carries the line item's name and contract.
func (r *SQLiteRepository) CreateContractLineItemFiscalYear(ctx context.Context, f core.ContractLineItemFiscalYear) (core.ContractLineItemFiscalYear, error) {
	if err := f.Validate(); err != nil {
		return core.ContractLineItemFiscalYear{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contract_line_item_fiscal_years (line_item_id, fiscal_year) VALUES (?, ?)`, f.LineItemID, f.FiscalYear)
	if err != nil {
		return core.ContractLineItemFiscalYear{}, fmt.Errorf("create line item fiscal year: %w", mapWriteError(err, "line_item_id"))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ContractLineItemFiscalYear{}, fmt.Errorf("line item fiscal year id: %w", err)
	}
	return r.GetContractLineItemFiscalYear(ctx, id)
}

func (r *SQLiteRepository) GetContractLineItemFiscalYear(ctx context.Context, id int64) (core.ContractLineItemFiscalYear, error) {
	var f core.ContractLineItemFiscalYear
	if err := r.db.GetContext(ctx, &f, lineItemFiscalYearSelect+` WHERE fy.id = ?`, id); err != nil {
		return core.ContractLineItemFiscalYear{}, mapGetError(err, entityLineItemFiscalYear, id)
	}
	return f, nil
}

func (r *SQLiteRepository) ListContractLineItemFiscalYears(ctx context.Context) ([]core.ContractLineItemFiscalYear, error) {
	years := []core.ContractLineItemFiscalYear{}
	if err := r.db.SelectContext(ctx, &years, lineItemFiscalYearSelect+` ORDER BY fy.id`); err != nil {
		return nil, fmt.Errorf("list line item fiscal years: %w", err)
	}
	return years, nil
}

func (r *SQLiteRepository) UpdateContractLineItemFiscalYear(ctx context.Context, f core.ContractLineItemFiscalYear) (core.ContractLineItemFiscalYear, error) {
	if err := f.Validate(); err != nil {
		return core.ContractLineItemFiscalYear{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE contract_line_item_fiscal_years SET line_item_id = ?, fiscal_year = ? WHERE id = ?`,
		f.LineItemID, f.FiscalYear, f.ID)
	if err != nil {
		return core.ContractLineItemFiscalYear{}, fmt.Errorf("update line item fiscal year: %w", mapWriteError(err, "line_item_id"))
	}
	if err := checkAffected(res, entityLineItemFiscalYear, f.ID); err != nil {
		return core.ContractLineItemFiscalYear{}, err
	}
	return r.GetContractLineItemFiscalYear(ctx, f.ID)
}

func (r *SQLiteRepository) DeleteContractLineItemFiscalYear(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, tableLineItemFiscalYears, entityLineItemFiscalYear, id)
}

func (r *SQLiteRepository) CreateContractLineItemFiscalYearCAN(ctx context.Context, c core.ContractLineItemFiscalYearCAN) (core.ContractLineItemFiscalYearCAN, error) {
	if err := c.Validate(); err != nil {
		return core.ContractLineItemFiscalYearCAN{}, err
	}
	if err := r.checkFundingRefs(ctx, c); err != nil {
		return core.ContractLineItemFiscalYearCAN{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contract_line_item_fiscal_year_cans (fiscal_year_id, can_id, funding) VALUES (?, ?, ?)`,
		c.FiscalYearID, c.CANID, c.Funding)
	if err != nil {
		return core.ContractLineItemFiscalYearCAN{}, fmt.Errorf("create line item funding: %w", mapWriteError(err, ""))
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.ContractLineItemFiscalYearCAN{}, fmt.Errorf("line item funding id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetContractLineItemFiscalYearCAN(ctx context.Context, id int64) (core.ContractLineItemFiscalYearCAN, error) {
	var c core.ContractLineItemFiscalYearCAN
	err := r.db.GetContext(ctx, &c,
		`SELECT `+lineItemFiscalYearCANColumns+` FROM contract_line_item_fiscal_year_cans WHERE id = ?`, id)
	if err != nil {
		return core.ContractLineItemFiscalYearCAN{}, mapGetError(err, entityLineItemFiscalYearCAN, id)
	}
	return c, nil
}

func (r *SQLiteRepository) ListContractLineItemFiscalYearCANs(ctx context.Context) ([]core.ContractLineItemFiscalYearCAN, error) {
	rows := []core.ContractLineItemFiscalYearCAN{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+lineItemFiscalYearCANColumns+` FROM contract_line_item_fiscal_year_cans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list line item funding: %w", err)
	}
	return rows, nil
}

func (r *SQLiteRepository) UpdateContractLineItemFiscalYearCAN(ctx context.Context, c core.ContractLineItemFiscalYearCAN) (core.ContractLineItemFiscalYearCAN, error) {
	if err := c.Validate(); err != nil {
		return core.ContractLineItemFiscalYearCAN{}, err
	}
	if err := r.checkFundingRefs(ctx, c); err != nil {
		return core.ContractLineItemFiscalYearCAN{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE contract_line_item_fiscal_year_cans SET fiscal_year_id = ?, can_id = ?, funding = ? WHERE id = ?`,
		c.FiscalYearID, c.CANID, c.Funding, c.ID)
	if err != nil {
		return core.ContractLineItemFiscalYearCAN{}, fmt.Errorf("update line item funding: %w", mapWriteError(err, ""))
	}
	if err := checkAffected(res, entityLineItemFiscalYearCAN, c.ID); err != nil {
		return core.ContractLineItemFiscalYearCAN{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteContractLineItemFiscalYearCAN(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, tableLineItemFiscalYearCN, entityLineItemFiscalYearCAN, id)
}

// checkFundingRefs names the offending field when a funding row points at a
// missing line-item year or CAN. SQLite's foreign key error does not say which.
func (r *SQLiteRepository) checkFundingRefs(ctx context.Context, c core.ContractLineItemFiscalYearCAN) error {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM contract_line_item_fiscal_years WHERE id = ?`, c.FiscalYearID); err != nil {
		return fmt.Errorf("check line item fiscal year: %w", err)
	}
	if n == 0 {
		return &core.ValidationError{Field: "fiscal_year_id", Reason: "refers to a missing record"}
	}
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM cans WHERE id = ?`, c.CANID); err != nil {
		return fmt.Errorf("check CAN: %w", err)
	}
	if n == 0 {
		return &core.ValidationError{Field: "can_id", Reason: "refers to a missing record"}
	}
	return nil
}
