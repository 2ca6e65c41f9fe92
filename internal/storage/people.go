package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ops/internal/core"
)

const (
	entityPerson  = "person"
	personColumns = "id, first_name, last_name, division"
)

func (r *SQLiteRepository) CreatePerson(ctx context.Context, p core.Person) (core.Person, error) {
	if err := p.Validate(); err != nil {
		return core.Person{}, err
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO people (first_name, last_name, division) VALUES (?, ?, ?)`,
			p.FirstName, p.LastName, p.Division)
		if err != nil {
			return fmt.Errorf("create person: %w", mapWriteError(err, ""))
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("person id: %w", err)
		}
		return replaceLinks(ctx, tx, tablePersonRoles, "person_id", "role_id", p.ID, p.RoleIDs, "role_ids")
	})
	if err != nil {
		return core.Person{}, err
	}
	p.RoleIDs = idsOrEmpty(dedupeIDs(p.RoleIDs))

	storageLogger().InfoContext(ctx, "Person created", "id", p.ID, "division", p.Division)
	return p, nil
}

func (r *SQLiteRepository) GetPerson(ctx context.Context, id int64) (core.Person, error) {
	var p core.Person
	if err := r.db.GetContext(ctx, &p, `SELECT `+personColumns+` FROM people WHERE id = ?`, id); err != nil {
		return core.Person{}, mapGetError(err, entityPerson, id)
	}
	roleIDs, err := linkedIDs(ctx, r.db, tablePersonRoles, "person_id", "role_id", id)
	if err != nil {
		return core.Person{}, err
	}
	p.RoleIDs = roleIDs
	return p, nil
}

func (r *SQLiteRepository) ListPeople(ctx context.Context) ([]core.Person, error) {
	people := []core.Person{}
	if err := r.db.SelectContext(ctx, &people, `SELECT `+personColumns+` FROM people ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	links, err := allLinks(ctx, r.db, tablePersonRoles, "person_id", "role_id")
	if err != nil {
		return nil, err
	}
	for i := range people {
		people[i].RoleIDs = idsOrEmpty(links[people[i].ID])
	}
	return people, nil
}

// UpdatePerson rewrites the person and replaces the role set.
func (r *SQLiteRepository) UpdatePerson(ctx context.Context, p core.Person) (core.Person, error) {
	if err := p.Validate(); err != nil {
		return core.Person{}, err
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE people SET first_name = ?, last_name = ?, division = ? WHERE id = ?`,
			p.FirstName, p.LastName, p.Division, p.ID)
		if err != nil {
			return fmt.Errorf("update person: %w", mapWriteError(err, ""))
		}
		if err := checkAffected(res, entityPerson, p.ID); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, tablePersonRoles, "person_id", "role_id", p.ID, p.RoleIDs, "role_ids")
	})
	if err != nil {
		return core.Person{}, err
	}
	p.RoleIDs = idsOrEmpty(dedupeIDs(p.RoleIDs))
	return p, nil
}

func (r *SQLiteRepository) DeletePerson(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, tablePeople, entityPerson, id)
}

// PeopleByIDs returns people in the order of ids, without their roles.
func (r *SQLiteRepository) PeopleByIDs(ctx context.Context, ids []int64) ([]core.Person, error) {
	people, err := selectByIDs(ctx, r.db, personColumns, tablePeople, ids, func(p core.Person) int64 { return p.ID })
	if err != nil {
		return nil, err
	}
	for i := range people {
		people[i].RoleIDs = []int64{}
	}
	return people, nil
}
