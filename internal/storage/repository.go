package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"

	applog "ops/internal/log"
)

// Table names used by the shared helpers. Never built from user input.
const (
	tableFundingPartners      = "funding_partners"
	tableRoles                = "roles"
	tablePeople               = "people"
	tablePersonRoles          = "person_roles"
	tableCANs                 = "cans"
	tableCANFundingSources    = "can_funding_sources"
	tableCANFiscalYears       = "can_fiscal_years"
	tableCANFiscalYearLeads   = "can_fiscal_year_leads"
	tableContracts            = "contracts"
	tableContractCANs         = "contract_cans"
	tableLineItems            = "contract_line_items"
	tableLineItemFiscalYears  = "contract_line_item_fiscal_years"
	tableLineItemFiscalYearCN = "contract_line_item_fiscal_year_cans"
)

// SQLiteRepository is the ledger's relational store.
type SQLiteRepository struct {
	db *sqlx.DB
}

// dsn enables foreign keys on every pooled connection; protect-on-delete
// depends on it.
func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the pool opens so every connection sees the schema.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sqlx.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn in a transaction, rolling back when it fails.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) deleteByID(ctx context.Context, table, entity string, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return mapDeleteError(err, entity, id)
	}
	return checkAffected(res, entity, id)
}

// replaceLinks rewrites the many-to-many set owned by ownerID.
func replaceLinks(ctx context.Context, tx *sqlx.Tx, table, ownerCol, targetCol string, ownerID int64, targetIDs []int64, field string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+ownerCol+" = ?", ownerID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	insert := "INSERT INTO " + table + " (" + ownerCol + ", " + targetCol + ") VALUES (?, ?)"
	for _, id := range dedupeIDs(targetIDs) {
		if _, err := tx.ExecContext(ctx, insert, ownerID, id); err != nil {
			return fmt.Errorf("link %s: %w", table, mapWriteError(err, field))
		}
	}
	return nil
}

// linkedIDs returns the targets linked to ownerID in insertion order.
func linkedIDs(ctx context.Context, q sqlx.QueryerContext, table, ownerCol, targetCol string, ownerID int64) ([]int64, error) {
	ids := []int64{}
	query := "SELECT " + targetCol + " FROM " + table + " WHERE " + ownerCol + " = ? ORDER BY rowid"
	if err := sqlx.SelectContext(ctx, q, &ids, query, ownerID); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return ids, nil
}

// allLinks loads a whole link table grouped by owner.
func allLinks(ctx context.Context, q sqlx.QueryerContext, table, ownerCol, targetCol string) (map[int64][]int64, error) {
	var rows []struct {
		Owner  int64 `db:"owner"`
		Target int64 `db:"target"`
	}
	query := "SELECT " + ownerCol + " AS owner, " + targetCol + " AS target FROM " + table + " ORDER BY rowid"
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	links := make(map[int64][]int64)
	for _, row := range rows {
		links[row.Owner] = append(links[row.Owner], row.Target)
	}
	return links, nil
}

func idsOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// selectByIDs loads rows whose id is in ids and returns them in ids order.
func selectByIDs[T any](ctx context.Context, q sqlx.QueryerContext, columns, table string, ids []int64, idOf func(T) int64) ([]T, error) {
	out := []T{}
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In("SELECT "+columns+" FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", table, err)
	}
	var rows []T
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	pos := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return pos[idOf(rows[i])] < pos[idOf(rows[j])] })
	return append(out, rows...), nil
}

// storageLogger tags repository logs with the storage component.
func storageLogger() *slog.Logger {
	return slog.Default().With(applog.FieldComponent, applog.ComponentStorage)
}
