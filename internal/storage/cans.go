package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ops/internal/core"
)

const (
	entityCAN  = "CAN"
	canColumns = "id, number, description, purpose, nickname, arrangement_type, authorizer_id"
)

// CreateCAN inserts the CAN and its funding sources in one transaction.
func (r *SQLiteRepository) CreateCAN(ctx context.Context, c core.CAN) (core.CAN, error) {
	if err := c.Validate(); err != nil {
		return core.CAN{}, err
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO cans (number, description, purpose, nickname, arrangement_type, authorizer_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.Number, c.Description, c.Purpose, c.Nickname, c.ArrangementType, c.AuthorizerID)
		if err != nil {
			return fmt.Errorf("create CAN: %w", mapWriteError(err, "authorizer_id"))
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("CAN id: %w", err)
		}
		return replaceLinks(ctx, tx, tableCANFundingSources, "can_id", "funding_partner_id", c.ID, c.FundingSourceIDs, "funding_source_ids")
	})
	if err != nil {
		return core.CAN{}, err
	}
	c.FundingSourceIDs = idsOrEmpty(dedupeIDs(c.FundingSourceIDs))

	storageLogger().InfoContext(ctx, "CAN created", "id", c.ID, "number", c.Number)
	return c, nil
}

func (r *SQLiteRepository) GetCAN(ctx context.Context, id int64) (core.CAN, error) {
	var c core.CAN
	if err := r.db.GetContext(ctx, &c, `SELECT `+canColumns+` FROM cans WHERE id = ?`, id); err != nil {
		return core.CAN{}, mapGetError(err, entityCAN, id)
	}
	sources, err := linkedIDs(ctx, r.db, tableCANFundingSources, "can_id", "funding_partner_id", id)
	if err != nil {
		return core.CAN{}, err
	}
	c.FundingSourceIDs = sources
	return c, nil
}

// ListCANs returns every CAN ordered by id.
func (r *SQLiteRepository) ListCANs(ctx context.Context) ([]core.CAN, error) {
	cans := []core.CAN{}
	if err := r.db.SelectContext(ctx, &cans, `SELECT `+canColumns+` FROM cans ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list CANs: %w", err)
	}
	if err := r.attachFundingSources(ctx, cans); err != nil {
		return nil, err
	}
	return cans, nil
}

func (r *SQLiteRepository) UpdateCAN(ctx context.Context, c core.CAN) (core.CAN, error) {
	if err := c.Validate(); err != nil {
		return core.CAN{}, err
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE cans SET number = ?, description = ?, purpose = ?, nickname = ?, arrangement_type = ?, authorizer_id = ?
			 WHERE id = ?`,
			c.Number, c.Description, c.Purpose, c.Nickname, c.ArrangementType, c.AuthorizerID, c.ID)
		if err != nil {
			return fmt.Errorf("update CAN: %w", mapWriteError(err, "authorizer_id"))
		}
		if err := checkAffected(res, entityCAN, c.ID); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, tableCANFundingSources, "can_id", "funding_partner_id", c.ID, c.FundingSourceIDs, "funding_source_ids")
	})
	if err != nil {
		return core.CAN{}, err
	}
	c.FundingSourceIDs = idsOrEmpty(dedupeIDs(c.FundingSourceIDs))
	return c, nil
}

// DeleteCAN fails with core.ErrReferentialIntegrity while fiscal-year
// snapshots or line-item funding rows point at the CAN.
func (r *SQLiteRepository) DeleteCAN(ctx context.Context, id int64) error {
	if err := r.deleteByID(ctx, tableCANs, entityCAN, id); err != nil {
		return err
	}
	storageLogger().InfoContext(ctx, "CAN deleted", "id", id)
	return nil
}

// CANsByIDs returns CANs in the order of ids.
func (r *SQLiteRepository) CANsByIDs(ctx context.Context, ids []int64) ([]core.CAN, error) {
	cans, err := selectByIDs(ctx, r.db, canColumns, tableCANs, ids, func(c core.CAN) int64 { return c.ID })
	if err != nil {
		return nil, err
	}
	if err := r.attachFundingSources(ctx, cans); err != nil {
		return nil, err
	}
	return cans, nil
}

func (r *SQLiteRepository) attachFundingSources(ctx context.Context, cans []core.CAN) error {
	links, err := allLinks(ctx, r.db, tableCANFundingSources, "can_id", "funding_partner_id")
	if err != nil {
		return err
	}
	for i := range cans {
		cans[i].FundingSourceIDs = idsOrEmpty(links[cans[i].ID])
	}
	return nil
}
