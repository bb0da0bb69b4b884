package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quillback/logbook/internal/extract"
)

// SaveResult persists one extraction result with its activities. If an
// extraction with the same content hash already exists, the existing row
// is returned and created is false.
func (s *SQLiteStore) SaveResult(ctx context.Context, res extract.Result, source string) (*Extraction, bool, error) {
	hash := HashExtraction(res.FullText, source)

	if existing, err := s.FindByHash(ctx, hash); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	warningsJSON, err := json.Marshal(warningsOrEmpty(res.Warnings))
	if err != nil {
		return nil, false, fmt.Errorf("marshaling warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO extractions (source, full_text, content_hash, success, confidence, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		source, res.FullText, hash, res.Success, res.Confidence, string(warningsJSON), now,
	)
	if err != nil {
		// Lost an insert race: another writer stored the same content
		// between our hash check and the insert.
		if isUniqueConstraintError(err) {
			if existing, ferr := s.FindByHash(ctx, hash); ferr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("inserting extraction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("getting last insert id: %w", err)
	}

	stored := make(map[extract.DayKey]string, len(res.Activities))
	for _, day := range extract.Weekdays() {
		content, ok := res.Activities[day]
		if !ok || content == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO activities (extraction_id, day, content) VALUES (?, ?, ?)`,
			id, string(day), content,
		); err != nil {
			return nil, false, fmt.Errorf("inserting %s activity: %w", day, err)
		}
		stored[day] = content
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing extraction: %w", err)
	}

	return &Extraction{
		ID:          id,
		Source:      source,
		FullText:    res.FullText,
		ContentHash: hash,
		Success:     res.Success,
		Confidence:  res.Confidence,
		Warnings:    warningsOrEmpty(res.Warnings),
		Activities:  stored,
		CreatedAt:   now,
	}, true, nil
}

// GetExtraction retrieves an extraction with its activities. Returns
// ErrNotFound if no such row exists.
func (s *SQLiteStore) GetExtraction(ctx context.Context, id int64) (*Extraction, error) {
	e, err := s.scanExtraction(s.db.QueryRowContext(ctx,
		`SELECT id, source, full_text, content_hash, success, confidence, warnings, created_at
		 FROM extractions WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("extraction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting extraction %d: %w", id, err)
	}

	if err := s.loadActivities(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// FindByHash looks up an extraction by its content hash for deduplication.
// Returns nil (no error) when the hash is unknown.
func (s *SQLiteStore) FindByHash(ctx context.Context, hash string) (*Extraction, error) {
	e, err := s.scanExtraction(s.db.QueryRowContext(ctx,
		`SELECT id, source, full_text, content_hash, success, confidence, warnings, created_at
		 FROM extractions WHERE content_hash = ?`, hash,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding extraction by hash: %w", err)
	}

	if err := s.loadActivities(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExtractions returns extractions newest first, with pagination.
func (s *SQLiteStore) ListExtractions(ctx context.Context, opts ListOpts) ([]*Extraction, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	query := `SELECT id, source, full_text, content_hash, success, confidence, warnings, created_at
			  FROM extractions`
	args := []interface{}{}

	if opts.Source != "" {
		query += " WHERE source = ?"
		args = append(args, opts.Source)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	defer rows.Close()

	var extractions []*Extraction
	for rows.Next() {
		e, err := s.scanExtraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning extraction row: %w", err)
		}
		extractions = append(extractions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, e := range extractions {
		if err := s.loadActivities(ctx, e); err != nil {
			return nil, err
		}
	}
	return extractions, nil
}

// DeleteExtraction removes an extraction and its activities.
func (s *SQLiteStore) DeleteExtraction(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Explicit child delete rather than relying on the foreign_keys
	// pragma, which is per-connection. The FTS delete trigger fires here.
	if _, err := tx.ExecContext(ctx, "DELETE FROM activities WHERE extraction_id = ?", id); err != nil {
		return fmt.Errorf("deleting activities for extraction %d: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM extractions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting extraction %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("extraction %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) scanExtraction(row rowScanner) (*Extraction, error) {
	e := &Extraction{}
	var warningsStr string
	if err := row.Scan(&e.ID, &e.Source, &e.FullText, &e.ContentHash,
		&e.Success, &e.Confidence, &warningsStr, &e.CreatedAt); err != nil {
		return nil, err
	}

	e.Warnings = []string{}
	if warningsStr != "" {
		if err := json.Unmarshal([]byte(warningsStr), &e.Warnings); err != nil {
			return nil, fmt.Errorf("parsing warnings for extraction %d: %w", e.ID, err)
		}
	}
	return e, nil
}

func (s *SQLiteStore) loadActivities(ctx context.Context, e *Extraction) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT day, content FROM activities WHERE extraction_id = ?", e.ID,
	)
	if err != nil {
		return fmt.Errorf("loading activities for extraction %d: %w", e.ID, err)
	}
	defer rows.Close()

	e.Activities = map[extract.DayKey]string{}
	for rows.Next() {
		var day, content string
		if err := rows.Scan(&day, &content); err != nil {
			return fmt.Errorf("scanning activity row: %w", err)
		}
		e.Activities[extract.DayKey(day)] = content
	}
	return rows.Err()
}

func warningsOrEmpty(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
