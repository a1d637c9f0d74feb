package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestListPeople(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "notes", "created_at", "updated_at", "source_count"}).
		AddRow("p1", "Ada Lovelace", "pioneer", now, now, 3).
		AddRow("p2", "Grace Hopper", nil, now, now, 0)

	mock.ExpectQuery("SELECT p.id").WillReturnRows(rows)

	people, err := store.ListPeople(context.Background())
	if err != nil {
		t.Fatalf("list people: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected 2 people, got %d", len(people))
	}
	if people[0].SourceCount != 3 {
		t.Fatalf("expected source count 3, got %d", people[0].SourceCount)
	}
	if people[1].Notes != "" {
		t.Fatalf("expected empty notes, got %q", people[1].Notes)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetPersonNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, name").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "notes", "created_at", "updated_at"}))

	_, err := store.GetPerson(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreatePerson(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO people").
		WithArgs(sqlmock.AnyArg(), "Ada Lovelace", "analytical engines").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	person, err := store.CreatePerson(context.Background(), "Ada Lovelace", "analytical engines")
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	if person.ID == "" {
		t.Fatal("expected generated id")
	}
	if person.Name != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", person.Name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdatePersonNoFields(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("SELECT id, name").WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "notes", "created_at", "updated_at"}).
			AddRow("p1", "Ada Lovelace", nil, now, now))

	person, err := store.UpdatePerson(context.Background(), "p1", nil, nil)
	if err != nil {
		t.Fatalf("update person: %v", err)
	}
	if person.Name != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", person.Name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeletePersonNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM people").WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeletePerson(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
