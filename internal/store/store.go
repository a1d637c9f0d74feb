package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Store provides access to the people, sources, events and review queue
// tables. All methods use single statements or explicit transactions; there
// is no cross-call locking discipline, so concurrent edits to the same row
// are last-writer-wins.
type Store struct {
	db *sql.DB
}

// New creates a store over an open database connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}
