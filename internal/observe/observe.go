// Package observe aggregates extraction history into operator-facing
// statistics.
//
// It answers the question: "How well is extraction going?" Totals,
// quality averages, per-day coverage, and freshness all come from store
// getters; this package only composes and annotates them.
package observe

import (
	"context"
	"fmt"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/store"
)

// Stats holds aggregate extraction statistics for observability.
type Stats struct {
	TotalExtractions int64      `json:"extractions"`
	TotalActivities  int64      `json:"activities"`
	StorageBytes     int64      `json:"storage_bytes"`
	AvgConfidence    float64    `json:"avg_confidence"`
	SuccessRate      float64    `json:"success_rate"`
	DayCoverage      []DayCount `json:"day_coverage"`
	Freshness        Freshness  `json:"freshness"`
	TotalWarnings    int        `json:"warnings_total"`
	Alerts           []string   `json:"alerts,omitempty"`
}

// DayCount is one weekday's activity count. A slice rather than a map so
// JSON output keeps week order.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Freshness holds the distribution of extractions by save-date buckets.
type Freshness struct {
	Today     int `json:"today"`
	ThisWeek  int `json:"this_week"`
	ThisMonth int `json:"this_month"`
	Older     int `json:"older"`
}

// Gather returns comprehensive extraction statistics.
func Gather(ctx context.Context, s store.Store) (*Stats, error) {
	stats := &Stats{}

	storeStats, err := s.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting store stats: %w", err)
	}
	stats.TotalExtractions = storeStats.ExtractionCount
	stats.TotalActivities = storeStats.ActivityCount
	stats.StorageBytes = storeStats.DBSizeBytes

	avg, err := s.GetAverageConfidence(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting average confidence: %w", err)
	}
	stats.AvgConfidence = avg

	rate, err := s.GetSuccessRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting success rate: %w", err)
	}
	stats.SuccessRate = rate

	coverage, err := s.GetDayCoverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting day coverage: %w", err)
	}
	stats.DayCoverage = make([]DayCount, 0, 5)
	for _, day := range extract.Weekdays() {
		stats.DayCoverage = append(stats.DayCoverage, DayCount{
			Day:   string(day),
			Count: coverage[string(day)],
		})
	}

	freshness, err := s.GetFreshnessDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting freshness distribution: %w", err)
	}
	stats.Freshness = Freshness{
		Today:     freshness.Today,
		ThisWeek:  freshness.ThisWeek,
		ThisMonth: freshness.ThisMonth,
		Older:     freshness.Older,
	}

	warnings, err := s.GetWarningTotal(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting warning total: %w", err)
	}
	stats.TotalWarnings = warnings

	stats.Alerts = buildQualityAlerts(stats)
	return stats, nil
}

// buildQualityAlerts derives advisory notes from the aggregate numbers.
// Quality alerts are suppressed on small histories where averages are
// mostly noise.
func buildQualityAlerts(stats *Stats) []string {
	alerts := make([]string, 0)

	const (
		minSampleSize  = 10
		lowConfidence  = 0.4
		lowSuccessRate = 0.8

		noteStorageBytes = int64(256 * 1024 * 1024)
	)

	if stats.TotalExtractions >= minSampleSize {
		if stats.AvgConfidence < lowConfidence {
			alerts = append(alerts, "low_confidence: average extraction confidence is below 0.4; check scan quality or OCR settings")
		}
		if stats.SuccessRate < lowSuccessRate {
			alerts = append(alerts, "high_failure_rate: more than 1 in 5 extractions produced no text")
		}
	}

	if stats.StorageBytes >= noteStorageBytes {
		alerts = append(alerts, "db_size_notice: storage is above 256MB; run vacuum to reclaim space")
	}

	return alerts
}
