package store

import (
	"database/sql"
	"fmt"
	"time"
)

// migrate creates all tables if they don't exist and seeds metadata.
func (s *SQLiteStore) migrate() error {
	bootstrapDone, err := s.isMetaFlagEnabled("schema_bootstrap_complete")
	if err != nil {
		return fmt.Errorf("checking bootstrap state: %w", err)
	}

	if !bootstrapDone {
		if err := s.runBootstrapDDL(); err != nil {
			return err
		}
	}

	// Seed metadata (outside bootstrap transaction, meta table now exists)
	if err := s.seedMeta(); err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}

	if !bootstrapDone {
		if err := s.setMetaFlag("schema_bootstrap_complete"); err != nil {
			return fmt.Errorf("marking bootstrap complete: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) runBootstrapDDL() error {
	statements := []string{
		// One row per extraction run
		`CREATE TABLE IF NOT EXISTS extractions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			source       TEXT NOT NULL DEFAULT '',
			full_text    TEXT NOT NULL,
			content_hash TEXT UNIQUE NOT NULL,
			success      INTEGER NOT NULL DEFAULT 1,
			confidence   REAL NOT NULL DEFAULT 0,
			warnings     TEXT NOT NULL DEFAULT '[]',
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_extractions_created ON extractions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_source ON extractions(source)`,

		// Per-day activities belonging to an extraction
		`CREATE TABLE IF NOT EXISTS activities (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			extraction_id INTEGER NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
			day           TEXT NOT NULL CHECK(day IN ('monday','tuesday','wednesday','thursday','friday')),
			content       TEXT NOT NULL,
			UNIQUE(extraction_id, day)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_extraction ON activities(extraction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_day ON activities(day)`,

		// FTS5 full-text search index over activity content
		`CREATE VIRTUAL TABLE IF NOT EXISTS activities_fts USING fts5(
			content,
			day,
			content=activities,
			content_rowid=id,
			tokenize='porter unicode61'
		)`,

		// FTS sync triggers
		`CREATE TRIGGER IF NOT EXISTS activities_ai AFTER INSERT ON activities BEGIN
			INSERT INTO activities_fts(rowid, content, day)
			VALUES (new.id, new.content, new.day);
		END`,

		`CREATE TRIGGER IF NOT EXISTS activities_ad AFTER DELETE ON activities BEGIN
			INSERT INTO activities_fts(activities_fts, rowid, content, day)
			VALUES('delete', old.id, old.content, old.day);
		END`,

		`CREATE TRIGGER IF NOT EXISTS activities_au AFTER UPDATE ON activities BEGIN
			INSERT INTO activities_fts(activities_fts, rowid, content, day)
			VALUES('delete', old.id, old.content, old.day);
			INSERT INTO activities_fts(rowid, content, day)
			VALUES (new.id, new.content, new.day);
		END`,

		// Metadata table
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration %q: %w", truncate(stmt, 80), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	return nil
}

func (s *SQLiteStore) isMetaFlagEnabled(key string) (bool, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='meta'`).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return value == "true", nil
}

func (s *SQLiteStore) setMetaFlag(key string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, 'true')", key)
	return err
}

// seedMeta initializes the meta table with defaults if not already set.
func (s *SQLiteStore) seedMeta() error {
	defaults := map[string]string{
		"schema_version": "1",
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}

	for k, v := range defaults {
		_, err := s.db.Exec(
			"INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)", k, v,
		)
		if err != nil {
			return fmt.Errorf("seeding meta key %q: %w", k, err)
		}
	}
	return nil
}

// truncate shortens a string for error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
