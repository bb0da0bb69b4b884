package store

import (
	"context"
	"fmt"
)

// Stats returns current database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}

	queries := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM extractions", &stats.ExtractionCount},
		{"SELECT COUNT(*) FROM activities", &stats.ActivityCount},
	}

	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("querying stats (%s): %w", q.query, err)
		}
	}

	// DB size only makes sense for file-based databases.
	if s.dbPath != ":memory:" {
		var pageCount, pageSize int64
		s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
		s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.DBSizeBytes = pageCount * pageSize
	}

	return stats, nil
}

// GetAverageConfidence returns the average confidence across all extractions.
func (s *SQLiteStore) GetAverageConfidence(ctx context.Context) (float64, error) {
	var avg float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(confidence), 0.0) FROM extractions`,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("getting average confidence: %w", err)
	}
	return avg, nil
}

// GetSuccessRate returns the fraction of extractions that succeeded.
func (s *SQLiteStore) GetSuccessRate(ctx context.Context) (float64, error) {
	var rate float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(success), 0.0) FROM extractions`,
	).Scan(&rate)
	if err != nil {
		return 0, fmt.Errorf("getting success rate: %w", err)
	}
	return rate, nil
}

// GetDayCoverage returns activity counts grouped by weekday.
func (s *SQLiteStore) GetDayCoverage(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, COUNT(*) FROM activities GROUP BY day`,
	)
	if err != nil {
		return nil, fmt.Errorf("getting day coverage: %w", err)
	}
	defer rows.Close()

	coverage := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scanning day coverage: %w", err)
		}
		coverage[day] = count
	}
	return coverage, rows.Err()
}

// GetFreshnessDistribution returns extraction counts bucketed by save date.
func (s *SQLiteStore) GetFreshnessDistribution(ctx context.Context) (*FreshnessDistribution, error) {
	freshness := &FreshnessDistribution{}

	// SQLite DATE() cannot parse Go's time format. Use SUBSTR(col, 1, 10)
	// for date comparisons.
	queries := []struct {
		query string
		dest  *int
	}{
		{
			`SELECT COUNT(*) FROM extractions
			 WHERE SUBSTR(created_at, 1, 10) = date('now')`,
			&freshness.Today,
		},
		{
			`SELECT COUNT(*) FROM extractions
			 WHERE SUBSTR(created_at, 1, 10) >= date('now', '-7 days')
			   AND SUBSTR(created_at, 1, 10) < date('now')`,
			&freshness.ThisWeek,
		},
		{
			`SELECT COUNT(*) FROM extractions
			 WHERE SUBSTR(created_at, 1, 10) >= date('now', '-1 month')
			   AND SUBSTR(created_at, 1, 10) < date('now', '-7 days')`,
			&freshness.ThisMonth,
		},
		{
			`SELECT COUNT(*) FROM extractions
			 WHERE SUBSTR(created_at, 1, 10) < date('now', '-1 month')`,
			&freshness.Older,
		},
	}

	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("querying freshness distribution: %w", err)
		}
	}

	return freshness, nil
}

// GetWarningTotal returns the total number of warnings across all stored
// extractions.
func (s *SQLiteStore) GetWarningTotal(ctx context.Context) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(json_array_length(warnings)), 0) FROM extractions`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("getting warning total: %w", err)
	}
	return total, nil
}
