package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func queueRowColumns() []string {
	return []string{
		"id", "person_id", "source_id", "title", "event_date", "location", "url",
		"registration_url", "original_post_url", "original_post_text",
		"http_check", "content_check", "date_check", "registration_check",
		"verification_errors", "extracted_at",
	}
}

func TestEnqueueCandidateWithFailedChecks(t *testing.T) {
	store, mock := newMockStore(t)

	// Failed checks do not block the insert.
	mock.ExpectQuery("INSERT INTO unverified_events").
		WillReturnRows(sqlmock.NewRows([]string{"extracted_at"}).AddRow(time.Now()))

	candidate := QueuedCandidate{
		PersonID:           "p1",
		Title:              "Book signing",
		URL:                "https://example.com/gone",
		HTTPCheck:          false,
		ContentCheck:       false,
		DateCheck:          true,
		RegistrationCheck:  false,
		VerificationErrors: []string{"HTTP check failed: status 404"},
	}

	saved, err := store.EnqueueCandidate(context.Background(), candidate)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}
	if saved.HTTPCheck {
		t.Fatal("http check should remain failed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListQueueDecodesErrors(t *testing.T) {
	store, mock := newMockStore(t)

	errsJSON, _ := json.Marshal([]string{"date unparseable"})
	mock.ExpectQuery("SELECT id, person_id").WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(queueRowColumns()).
			AddRow("q1", "p1", nil, "Keynote", "next Tuesday", nil, "https://example.com/talk",
				nil, nil, nil, true, true, false, false, errsJSON, time.Now()))

	queue, err := store.ListQueue(context.Background(), "p1")
	if err != nil {
		t.Fatalf("list queue: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(queue))
	}
	if len(queue[0].VerificationErrors) != 1 || queue[0].VerificationErrors[0] != "date unparseable" {
		t.Fatalf("unexpected errors: %v", queue[0].VerificationErrors)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPromoteQueued(t *testing.T) {
	store, mock := newMockStore(t)

	approvedAt := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	expiresAt := approvedAt.Add(7 * 24 * time.Hour)
	errsJSON, _ := json.Marshal([]string{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, person_id").WithArgs("q1").
		WillReturnRows(sqlmock.NewRows(queueRowColumns()).
			AddRow("q1", "p1", "s1", "Keynote", "2026-09-15", "Berlin", "https://example.com/talk",
				"https://tickets.example.com", "https://example.com/post", "full text",
				true, true, true, true, errsJSON, time.Now()))
	mock.ExpectQuery("INSERT INTO events").
		WillReturnRows(sqlmock.NewRows([]string{"discovered_at"}).AddRow(time.Now()))
	mock.ExpectExec("DELETE FROM unverified_events").WithArgs("q1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	event, err := store.PromoteQueued(context.Background(), "q1", approvedAt, expiresAt)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if event.Status != "upcoming" {
		t.Fatalf("unexpected status %q", event.Status)
	}
	if event.TicketURL != "https://tickets.example.com" {
		t.Fatalf("registration url not carried over: %q", event.TicketURL)
	}
	if event.StartTime == nil || event.StartTime.Month() != time.September {
		t.Fatalf("event date not parsed: %v", event.StartTime)
	}
	if event.ExpiresAt == nil || !event.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("unexpected expiry: %v", event.ExpiresAt)
	}
	if got := event.VerificationStatus["http_check"]; got != true {
		t.Fatalf("snapshot missing http check: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPromoteQueuedMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, person_id").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(queueRowColumns()))
	mock.ExpectRollback()

	_, err := store.PromoteQueued(context.Background(), "missing", time.Now(), time.Now())
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
