package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const queueColumns = `id, person_id, source_id, title, event_date, location, url, registration_url,
	original_post_url, original_post_text, http_check, content_check, date_check, registration_check,
	verification_errors, extracted_at`

// EnqueueCandidate inserts an extracted event into the review queue. The
// candidate is stored regardless of how many verification checks passed.
func (s *Store) EnqueueCandidate(ctx context.Context, c QueuedCandidate) (QueuedCandidate, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	errsJSON, err := json.Marshal(c.VerificationErrors)
	if err != nil {
		return QueuedCandidate{}, fmt.Errorf("marshal verification errors: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO unverified_events (
			id, person_id, source_id, title, event_date, location, url, registration_url,
			original_post_url, original_post_text, http_check, content_check, date_check,
			registration_check, verification_errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING extracted_at
	`, c.ID, c.PersonID, c.SourceID, c.Title, nullIfEmpty(c.EventDate), nullIfEmpty(c.Location),
		c.URL, nullIfEmpty(c.RegistrationURL), nullIfEmpty(c.OriginalPostURL),
		nullIfEmpty(c.OriginalPostText), c.HTTPCheck, c.ContentCheck, c.DateCheck,
		c.RegistrationCheck, errsJSON).Scan(&c.ExtractedAt)
	if err != nil {
		return QueuedCandidate{}, fmt.Errorf("enqueue candidate: %w", err)
	}
	return c, nil
}

// ListQueue returns pending candidates, oldest first. An empty personID
// returns the whole queue.
func (s *Store) ListQueue(ctx context.Context, personID string) ([]QueuedCandidate, error) {
	query := `SELECT ` + queueColumns + ` FROM unverified_events ORDER BY extracted_at ASC`
	args := []any{}
	if personID != "" {
		query = `SELECT ` + queueColumns + ` FROM unverified_events WHERE person_id = $1 ORDER BY extracted_at ASC`
		args = append(args, personID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var out []QueuedCandidate
	for rows.Next() {
		c, err := scanQueued(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue: %w", err)
	}
	return out, nil
}

// GetQueued returns one pending candidate by id.
func (s *Store) GetQueued(ctx context.Context, id string) (QueuedCandidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM unverified_events WHERE id = $1`, id)
	c, err := scanQueued(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QueuedCandidate{}, ErrNotFound
	}
	if err != nil {
		return QueuedCandidate{}, err
	}
	return c, nil
}

// DeleteQueued removes a candidate without promoting it.
func (s *Store) DeleteQueued(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM unverified_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete queued candidate: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteQueued approves a candidate: a confirmed event is created with the
// verification outcome snapshotted onto it, and the queue row is removed.
// Both happen in one transaction.
func (s *Store) PromoteQueued(ctx context.Context, id string, approvedAt, expiresAt time.Time) (Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Event{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM unverified_events WHERE id = $1`, id)
	c, err := scanQueued(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}

	var startTime *time.Time
	if t, ok := parseFlexibleTime(c.EventDate); ok {
		startTime = &t
	}

	verification := map[string]any{
		"http_check":         c.HTTPCheck,
		"content_check":      c.ContentCheck,
		"date_check":         c.DateCheck,
		"registration_check": c.RegistrationCheck,
	}
	if len(c.VerificationErrors) > 0 {
		verification["errors"] = c.VerificationErrors
	}
	verificationJSON, err := json.Marshal(verification)
	if err != nil {
		return Event{}, fmt.Errorf("marshal verification snapshot: %w", err)
	}

	event := Event{
		ID:                 uuid.NewString(),
		PersonID:           c.PersonID,
		SourceID:           c.SourceID,
		Title:              c.Title,
		StartTime:          startTime,
		Location:           c.Location,
		URL:                c.URL,
		TicketURL:          c.RegistrationURL,
		Status:             "upcoming",
		ApprovedAt:         &approvedAt,
		ExpiresAt:          &expiresAt,
		VerificationStatus: verification,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO events (
			id, person_id, source_id, title, start_time, location, url, ticket_url,
			status, approved_at, expires_at, verification_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING discovered_at
	`, event.ID, event.PersonID, event.SourceID, event.Title, event.StartTime,
		nullIfEmpty(event.Location), nullIfEmpty(event.URL), nullIfEmpty(event.TicketURL),
		event.Status, approvedAt, expiresAt, verificationJSON).Scan(&event.DiscoveredAt)
	if err != nil {
		return Event{}, fmt.Errorf("insert approved event: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM unverified_events WHERE id = $1`, id); err != nil {
		return Event{}, fmt.Errorf("remove queue entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Event{}, fmt.Errorf("commit promotion: %w", err)
	}
	return event, nil
}

func scanQueued(row rowScanner) (QueuedCandidate, error) {
	var c QueuedCandidate
	var eventDate, location, regURL, postURL, postText sql.NullString
	var errsJSON []byte
	err := row.Scan(
		&c.ID,
		&c.PersonID,
		&c.SourceID,
		&c.Title,
		&eventDate,
		&location,
		&c.URL,
		&regURL,
		&postURL,
		&postText,
		&c.HTTPCheck,
		&c.ContentCheck,
		&c.DateCheck,
		&c.RegistrationCheck,
		&errsJSON,
		&c.ExtractedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return QueuedCandidate{}, err
		}
		return QueuedCandidate{}, fmt.Errorf("scan queued candidate: %w", err)
	}
	c.EventDate = eventDate.String
	c.Location = location.String
	c.RegistrationURL = regURL.String
	c.OriginalPostURL = postURL.String
	c.OriginalPostText = postText.String
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &c.VerificationErrors); err != nil {
			return QueuedCandidate{}, fmt.Errorf("decode verification errors: %w", err)
		}
	}
	return c, nil
}
