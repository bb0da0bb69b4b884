package store

import (
	"context"
	"fmt"
	"strings"
)

// SearchActivities performs full-text search over stored activities using
// FTS5 with BM25 ranking.
func (s *SQLiteStore) SearchActivities(ctx context.Context, query string, limit int) ([]*SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}

	matchQuery := escapeFTSQuery(query)
	if matchQuery == "" {
		return []*SearchHit{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.extraction_id, a.day, a.content,
		        snippet(activities_fts, 0, '<b>', '</b>', '...', 32),
		        bm25(activities_fts) AS score,
		        e.source, e.created_at
		 FROM activities_fts
		 JOIN activities a ON activities_fts.rowid = a.id
		 JOIN extractions e ON e.id = a.extraction_id
		 WHERE activities_fts MATCH ?
		 ORDER BY score
		 LIMIT ?`,
		matchQuery, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("FTS search: %w", err)
	}
	defer rows.Close()

	hits := []*SearchHit{}
	for rows.Next() {
		h := &SearchHit{}
		if err := rows.Scan(&h.ExtractionID, &h.Day, &h.Content,
			&h.Snippet, &h.Score, &h.Source, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// escapeFTSQuery quotes each term so user input cannot hit FTS5 query
// syntax (dashes, colons, stray quotes). Terms are ANDed.
func escapeFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
