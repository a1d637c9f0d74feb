package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sourceColumns = `id, person_id, type, url, confidence, status, last_post_date, avg_posts_per_month, discovered_at, last_checked`

// ListSourcesByPerson returns a person's sources, newest first.
func (s *Store) ListSourcesByPerson(ctx context.Context, personID string) ([]Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE person_id = $1
		ORDER BY discovered_at DESC
	`, personID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// GetSource returns one source by id.
func (s *Store) GetSource(ctx context.Context, id string) (Source, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE id = $1
	`, id)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, ErrNotFound
	}
	if err != nil {
		return Source{}, err
	}
	return src, nil
}

// CreateSource inserts a source. A duplicate (person, url) pair is not an
// error: the existing row wins and is returned.
func (s *Store) CreateSource(ctx context.Context, personID, sourceType, url, confidence string) (Source, error) {
	if confidence == "" {
		confidence = "medium"
	}
	id := uuid.NewString()
	var insertedID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sources (id, person_id, type, url, confidence)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (person_id, url) DO NOTHING
		RETURNING id
	`, id, personID, sourceType, url, confidence).Scan(&insertedID)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict: return the existing row for this (person, url).
		row := s.db.QueryRowContext(ctx, `
			SELECT `+sourceColumns+`
			FROM sources
			WHERE person_id = $1 AND url = $2
		`, personID, url)
		src, scanErr := scanSource(row)
		if scanErr != nil {
			return Source{}, fmt.Errorf("fetch conflicting source: %w", scanErr)
		}
		return src, nil
	}
	if err != nil {
		return Source{}, fmt.Errorf("create source: %w", err)
	}
	return s.GetSource(ctx, insertedID)
}

// BulkInsertSources inserts discovered sources for a person inside one
// transaction, ignoring (person, url) duplicates. Returns the number of
// rows actually inserted.
func (s *Store) BulkInsertSources(ctx context.Context, personID string, seeds []SourceSeed) (int64, error) {
	if len(seeds) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sources (id, person_id, type, url, confidence)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (person_id, url) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, seed := range seeds {
		confidence := seed.Confidence
		if confidence == "" {
			confidence = "medium"
		}
		result, err := stmt.ExecContext(ctx, uuid.NewString(), personID, seed.Type, seed.URL, confidence)
		if err != nil {
			return 0, fmt.Errorf("insert source %s: %w", seed.URL, err)
		}
		affected, _ := result.RowsAffected()
		inserted += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// UpdateSource applies the non-nil status/confidence fields.
func (s *Store) UpdateSource(ctx context.Context, id string, status, confidence *string) (Source, error) {
	sets := []string{}
	args := []any{}
	if status != nil {
		args = append(args, *status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if confidence != nil {
		args = append(args, *confidence)
		sets = append(sets, fmt.Sprintf("confidence = $%d", len(args)))
	}
	if len(sets) == 0 {
		return s.GetSource(ctx, id)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE sources SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Source{}, fmt.Errorf("update source: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return Source{}, ErrNotFound
	}
	return s.GetSource(ctx, id)
}

// UpdateSourceActivity records the outcome of a posting-frequency analysis.
func (s *Store) UpdateSourceActivity(ctx context.Context, id string, lastPostDate *time.Time, avgPostsPerMonth float64, checkedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sources
		SET last_post_date = $2,
			avg_posts_per_month = $3,
			last_checked = $4
		WHERE id = $1
	`, id, lastPostDate, avgPostsPerMonth, checkedAt)
	if err != nil {
		return fmt.Errorf("update source activity: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSource removes a source. Queued candidates keep a nulled reference.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (Source, error) {
	var src Source
	var confidence, status sql.NullString
	var lastPost, lastChecked sql.NullTime
	var avg sql.NullFloat64
	err := row.Scan(
		&src.ID,
		&src.PersonID,
		&src.Type,
		&src.URL,
		&confidence,
		&status,
		&lastPost,
		&avg,
		&src.DiscoveredAt,
		&lastChecked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Source{}, err
		}
		return Source{}, fmt.Errorf("scan source: %w", err)
	}
	src.Confidence = confidence.String
	src.Status = status.String
	if lastPost.Valid {
		t := lastPost.Time
		src.LastPostDate = &t
	}
	if avg.Valid {
		v := avg.Float64
		src.AvgPostsPerMonth = &v
	}
	if lastChecked.Valid {
		t := lastChecked.Time
		src.LastChecked = &t
	}
	return src, nil
}
