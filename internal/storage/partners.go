package storage

import (
	"context"
	"fmt"

	"ops/internal/core"
)

const (
	entityFundingPartner = "funding partner"
	entityRole           = "role"
)

// CreateFundingPartner inserts a new agency.
func (r *SQLiteRepository) CreateFundingPartner(ctx context.Context, p core.FundingPartner) (core.FundingPartner, error) {
	if err := p.Validate(); err != nil {
		return core.FundingPartner{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO funding_partners (name, nickname) VALUES (?, ?)`, p.Name, p.Nickname)
	if err != nil {
		return core.FundingPartner{}, fmt.Errorf("create funding partner: %w", mapWriteError(err, ""))
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return core.FundingPartner{}, fmt.Errorf("funding partner id: %w", err)
	}

	storageLogger().InfoContext(ctx, "Funding partner created", "id", p.ID, "name", p.Name)
	return p, nil
}

func (r *SQLiteRepository) GetFundingPartner(ctx context.Context, id int64) (core.FundingPartner, error) {
	var p core.FundingPartner
	err := r.db.GetContext(ctx, &p, `SELECT id, name, nickname FROM funding_partners WHERE id = ?`, id)
	if err != nil {
		return core.FundingPartner{}, mapGetError(err, entityFundingPartner, id)
	}
	return p, nil
}

func (r *SQLiteRepository) ListFundingPartners(ctx context.Context) ([]core.FundingPartner, error) {
	partners := []core.FundingPartner{}
	if err := r.db.SelectContext(ctx, &partners, `SELECT id, name, nickname FROM funding_partners ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list funding partners: %w", err)
	}
	return partners, nil
}

func (r *SQLiteRepository) UpdateFundingPartner(ctx context.Context, p core.FundingPartner) (core.FundingPartner, error) {
	if err := p.Validate(); err != nil {
		return core.FundingPartner{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE funding_partners SET name = ?, nickname = ? WHERE id = ?`, p.Name, p.Nickname, p.ID)
	if err != nil {
		return core.FundingPartner{}, fmt.Errorf("update funding partner: %w", mapWriteError(err, ""))
	}
	if err := checkAffected(res, entityFundingPartner, p.ID); err != nil {
		return core.FundingPartner{}, err
	}
	return p, nil
}

// DeleteFundingPartner fails with core.ErrReferentialIntegrity while any CAN
// names the partner as its authorizer. Funding source links are dropped.
func (r *SQLiteRepository) DeleteFundingPartner(ctx context.Context, id int64) error {
	if err := r.deleteByID(ctx, tableFundingPartners, entityFundingPartner, id); err != nil {
		return err
	}
	storageLogger().InfoContext(ctx, "Funding partner deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) CreateRole(ctx context.Context, role core.Role) (core.Role, error) {
	if err := role.Validate(); err != nil {
		return core.Role{}, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO roles (name) VALUES (?)`, role.Name)
	if err != nil {
		return core.Role{}, fmt.Errorf("create role: %w", mapWriteError(err, ""))
	}
	if role.ID, err = res.LastInsertId(); err != nil {
		return core.Role{}, fmt.Errorf("role id: %w", err)
	}
	return role, nil
}

func (r *SQLiteRepository) GetRole(ctx context.Context, id int64) (core.Role, error) {
	var role core.Role
	if err := r.db.GetContext(ctx, &role, `SELECT id, name FROM roles WHERE id = ?`, id); err != nil {
		return core.Role{}, mapGetError(err, entityRole, id)
	}
	return role, nil
}

func (r *SQLiteRepository) ListRoles(ctx context.Context) ([]core.Role, error) {
	roles := []core.Role{}
	if err := r.db.SelectContext(ctx, &roles, `SELECT id, name FROM roles ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (r *SQLiteRepository) UpdateRole(ctx context.Context, role core.Role) (core.Role, error) {
	if err := role.Validate(); err != nil {
		return core.Role{}, err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE roles SET name = ? WHERE id = ?`, role.Name, role.ID)
	if err != nil {
		return core.Role{}, fmt.Errorf("update role: %w", mapWriteError(err, ""))
	}
	if err := checkAffected(res, entityRole, role.ID); err != nil {
		return core.Role{}, err
	}
	return role, nil
}

func (r *SQLiteRepository) DeleteRole(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, tableRoles, entityRole, id)
}

// RolesByIDs returns the roles in the order of ids. Missing ids are skipped.
func (r *SQLiteRepository) RolesByIDs(ctx context.Context, ids []int64) ([]core.Role, error) {
	return selectByIDs(ctx, r.db, "id, name", tableRoles, ids, func(role core.Role) int64 { return role.ID })
}

// FundingPartnersByIDs returns the partners in the order of ids.
func (r *SQLiteRepository) FundingPartnersByIDs(ctx context.Context, ids []int64) ([]core.FundingPartner, error) {
	return selectByIDs(ctx, r.db, "id, name, nickname", tableFundingPartners, ids,
		func(p core.FundingPartner) int64 { return p.ID })
}
