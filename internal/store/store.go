// Package store provides the SQLite + FTS5 storage layer for extraction
// history.
//
// All data lives in a single SQLite database file:
// - Extractions with their full text, confidence, and warnings
// - Per-day activities belonging to each extraction
// - FTS5 full-text index over activity content, synced by triggers
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quillback/logbook/internal/extract"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.logbook/logbook.db"

// ErrNotFound is returned when a requested extraction does not exist.
var ErrNotFound = errors.New("extraction not found")

// Extraction is one stored extraction run.
type Extraction struct {
	ID          int64                     `json:"id"`
	Source      string                    `json:"source,omitempty"`
	FullText    string                    `json:"full_text"`
	ContentHash string                    `json:"content_hash"`
	Success     bool                      `json:"success"`
	Confidence  float64                   `json:"confidence"`
	Warnings    []string                  `json:"warnings"`
	Activities  map[extract.DayKey]string `json:"activities"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// SearchHit is one activity matched by full-text search.
type SearchHit struct {
	ExtractionID int64     `json:"extraction_id"`
	Day          string    `json:"day"`
	Content      string    `json:"content"`
	Snippet      string    `json:"snippet"`
	Score        float64   `json:"score"`
	Source       string    `json:"source,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListOpts controls pagination and filtering for ListExtractions.
type ListOpts struct {
	Limit  int
	Offset int
	Source string // filter by source label
}

// StoreStats holds raw counts about the store.
type StoreStats struct {
	ExtractionCount int64
	ActivityCount   int64
	DBSizeBytes     int64
}

// FreshnessDistribution buckets extractions by age.
type FreshnessDistribution struct {
	Today     int
	ThisWeek  int
	ThisMonth int
	Older     int
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath string
}

// Store defines the storage interface.
type Store interface {
	// Extractions
	SaveResult(ctx context.Context, res extract.Result, source string) (*Extraction, bool, error)
	GetExtraction(ctx context.Context, id int64) (*Extraction, error)
	ListExtractions(ctx context.Context, opts ListOpts) ([]*Extraction, error)
	DeleteExtraction(ctx context.Context, id int64) error
	FindByHash(ctx context.Context, hash string) (*Extraction, error)

	// Search
	SearchActivities(ctx context.Context, query string, limit int) ([]*SearchHit, error)

	// Observability
	Stats(ctx context.Context) (*StoreStats, error)
	GetAverageConfidence(ctx context.Context) (float64, error)
	GetSuccessRate(ctx context.Context) (float64, error)
	GetDayCoverage(ctx context.Context) (map[string]int, error)
	GetFreshnessDistribution(ctx context.Context) (*FreshnessDistribution, error)
	GetWarningTotal(ctx context.Context) (int, error)

	// Maintenance
	Vacuum(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite + FTS5.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	cfg.DBPath = expandPath(cfg.DBPath)

	// Create parent directory for non-memory databases
	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Enable WAL mode and foreign keys
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	// Run migrations
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Vacuum runs VACUUM on the database. Manual only, never auto-vacuum.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
