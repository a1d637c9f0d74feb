package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ListPeople returns every tracked person with a per-person source count,
// newest first.
func (s *Store) ListPeople(ctx context.Context) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id,
			p.name,
			p.notes,
			p.created_at,
			p.updated_at,
			COUNT(src.id) AS source_count
		FROM people p
		LEFT JOIN sources src ON src.person_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var p Person
		var notes sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &notes, &p.CreatedAt, &p.UpdatedAt, &p.SourceCount); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		p.Notes = notes.String
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return people, nil
}

// GetPerson returns one person by id.
func (s *Store) GetPerson(ctx context.Context, id string) (Person, error) {
	var p Person
	var notes sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, notes, created_at, updated_at
		FROM people
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("get person: %w", err)
	}
	p.Notes = notes.String
	return p, nil
}

// CreatePerson inserts a new person and returns the stored row.
func (s *Store) CreatePerson(ctx context.Context, name, notes string) (Person, error) {
	p := Person{ID: uuid.NewString(), Name: name, Notes: notes}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO people (id, name, notes)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, nullIfEmpty(p.Notes)).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Person{}, fmt.Errorf("create person: %w", err)
	}
	return p, nil
}

// UpdatePerson applies the non-nil fields and returns the updated row.
func (s *Store) UpdatePerson(ctx context.Context, id string, name, notes *string) (Person, error) {
	sets := []string{}
	args := []any{}
	if name != nil {
		args = append(args, *name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if notes != nil {
		args = append(args, *notes)
		sets = append(sets, fmt.Sprintf("notes = $%d", len(args)))
	}
	if len(sets) == 0 {
		return s.GetPerson(ctx, id)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE people SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Person{}, fmt.Errorf("update person: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return Person{}, ErrNotFound
	}
	return s.GetPerson(ctx, id)
}

// DeletePerson removes a person. Sources and events cascade in the schema.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM people WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
