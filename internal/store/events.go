package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
)

const eventColumns = `id, person_id, source_id, title, description, start_time, end_time, location,
	venue, city, country, url, ticket_url, confidence, status, discovered_at, verified_at,
	approved_at, expires_at, verification_status`

// ListEventsByPerson returns a person's confirmed events, soonest first.
// Events without a start time sort last.
func (s *Store) ListEventsByPerson(ctx context.Context, personID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE person_id = $1
		ORDER BY start_time ASC NULLS LAST, discovered_at DESC
	`, personID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// GetEvent returns one event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}
	return ev, nil
}

// CreateEvent inserts a manually entered event. It bypasses the review
// queue, so no verification snapshot is attached.
func (s *Store) CreateEvent(ctx context.Context, ev Event) (Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Status == "" {
		ev.Status = "upcoming"
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO events (
			id, person_id, source_id, title, description, start_time, end_time, location,
			venue, city, country, url, ticket_url, confidence, status, approved_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING discovered_at
	`, ev.ID, ev.PersonID, ev.SourceID, ev.Title, nullIfEmpty(ev.Description), ev.StartTime,
		ev.EndTime, nullIfEmpty(ev.Location), nullIfEmpty(ev.Venue), nullIfEmpty(ev.City),
		nullIfEmpty(ev.Country), nullIfEmpty(ev.URL), nullIfEmpty(ev.TicketURL),
		nullIfEmpty(ev.Confidence), ev.Status, ev.ApprovedAt, ev.ExpiresAt).Scan(&ev.DiscoveredAt)
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SweepExpired removes events whose retention window has passed. Events
// without an expiry are kept forever.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM events
		WHERE expires_at IS NOT NULL AND expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep expired events: %w", err)
	}
	removed, _ := result.RowsAffected()
	return removed, nil
}

func scanEvent(row rowScanner) (Event, error) {
	var ev Event
	var description, location, venue, city, country, url, ticketURL, confidence sql.NullString
	var startTime, endTime, verifiedAt, approvedAt, expiresAt sql.NullTime
	var verificationJSON []byte
	err := row.Scan(
		&ev.ID,
		&ev.PersonID,
		&ev.SourceID,
		&ev.Title,
		&description,
		&startTime,
		&endTime,
		&location,
		&venue,
		&city,
		&country,
		&url,
		&ticketURL,
		&confidence,
		&ev.Status,
		&ev.DiscoveredAt,
		&verifiedAt,
		&approvedAt,
		&expiresAt,
		&verificationJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, err
		}
		return Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.Description = description.String
	ev.Location = location.String
	ev.Venue = venue.String
	ev.City = city.String
	ev.Country = country.String
	ev.URL = url.String
	ev.TicketURL = ticketURL.String
	ev.Confidence = confidence.String
	if startTime.Valid {
		t := startTime.Time
		ev.StartTime = &t
	}
	if endTime.Valid {
		t := endTime.Time
		ev.EndTime = &t
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		ev.VerifiedAt = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		ev.ApprovedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		ev.ExpiresAt = &t
	}
	if len(verificationJSON) > 0 {
		if err := json.Unmarshal(verificationJSON, &ev.VerificationStatus); err != nil {
			return Event{}, fmt.Errorf("decode verification status: %w", err)
		}
	}
	return ev, nil
}

// parseFlexibleTime parses the free-form date strings that extraction keeps
// verbatim. Returns false when the string is empty or unparseable.
func parseFlexibleTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
