package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ops/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type constraintKind int

const (
	noConstraint constraintKind = iota
	uniqueConstraint
	foreignKeyConstraint
	checkConstraint
)

// classifyConstraint reports which SQLite constraint, if any, err violated.
func classifyConstraint(err error) constraintKind {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return noConstraint
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return uniqueConstraint
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return foreignKeyConstraint
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return checkConstraint
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return noConstraint
	}
	// Primary result code only; fall back to the message.
	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return uniqueConstraint
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return foreignKeyConstraint
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return checkConstraint
	}
	return noConstraint
}

// mapWriteError converts constraint failures raised by an insert or update.
// A foreign key failure here means field points at a record that does not exist.
func mapWriteError(err error, field string) error {
	switch classifyConstraint(err) {
	case uniqueConstraint:
		return fmt.Errorf("%w: %v", core.ErrUniqueness, err)
	case foreignKeyConstraint:
		if field == "" {
			field = "reference"
		}
		return &core.ValidationError{Field: field, Reason: "refers to a missing record"}
	case checkConstraint:
		return &core.ValidationError{Field: "record", Reason: err.Error()}
	}
	return err
}

// mapDeleteError converts a foreign key failure on delete into a protected
// reference error.
func mapDeleteError(err error, entity string, id int64) error {
	if classifyConstraint(err) == foreignKeyConstraint {
		return fmt.Errorf("%w: %s %d is still referenced", core.ErrReferentialIntegrity, entity, id)
	}
	return err
}

func mapGetError(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func checkAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
