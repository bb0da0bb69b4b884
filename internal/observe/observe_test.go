package observe

import (
	"context"
	"testing"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(store.StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGather_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	stats, err := Gather(context.Background(), s)
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if stats.TotalExtractions != 0 {
		t.Errorf("expected 0 extractions, got %d", stats.TotalExtractions)
	}
	if stats.AvgConfidence != 0 {
		t.Errorf("expected 0 average confidence, got %v", stats.AvgConfidence)
	}
	if len(stats.DayCoverage) != 5 {
		t.Fatalf("expected coverage for 5 days, got %d", len(stats.DayCoverage))
	}
	for _, dc := range stats.DayCoverage {
		if dc.Count != 0 {
			t.Errorf("expected 0 count for %s, got %d", dc.Day, dc.Count)
		}
	}
	if len(stats.Alerts) != 0 {
		t.Errorf("expected no alerts on empty store, got %v", stats.Alerts)
	}
}

func TestGather(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	good := extract.Result{
		Success:  true,
		FullText: "Monday: balanced the fan rotor\nWednesday: resealed the inspection hatch",
		Activities: map[extract.DayKey]string{
			extract.Monday:    "Balanced the fan rotor.",
			extract.Wednesday: "Resealed the inspection hatch.",
		},
		Confidence: 0.6,
		Warnings:   []string{"missing days: Tuesday, Thursday, Friday"},
	}
	bad := extract.Result{
		Success:    false,
		Activities: map[extract.DayKey]string{},
		Warnings:   []string{"no activities detected in text"},
	}

	if _, _, err := s.SaveResult(ctx, good, "w1.png"); err != nil {
		t.Fatalf("saving good result: %v", err)
	}
	if _, _, err := s.SaveResult(ctx, bad, "w2.png"); err != nil {
		t.Fatalf("saving bad result: %v", err)
	}

	stats, err := Gather(ctx, s)
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	if stats.TotalExtractions != 2 {
		t.Errorf("expected 2 extractions, got %d", stats.TotalExtractions)
	}
	if stats.TotalActivities != 2 {
		t.Errorf("expected 2 activities, got %d", stats.TotalActivities)
	}
	if stats.AvgConfidence < 0.29 || stats.AvgConfidence > 0.31 {
		t.Errorf("expected average confidence ~0.3, got %v", stats.AvgConfidence)
	}
	if stats.SuccessRate != 0.5 {
		t.Errorf("expected success rate 0.5, got %v", stats.SuccessRate)
	}
	if stats.TotalWarnings != 2 {
		t.Errorf("expected 2 total warnings, got %d", stats.TotalWarnings)
	}
	if stats.Freshness.Today != 2 {
		t.Errorf("expected 2 extractions today, got %+v", stats.Freshness)
	}
}

func TestGather_DayCoverageWeekOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res := extract.Result{
		Success:  true,
		FullText: "Friday: powered down for the holidays",
		Activities: map[extract.DayKey]string{
			extract.Friday: "Powered down for the holidays.",
		},
	}
	if _, _, err := s.SaveResult(ctx, res, ""); err != nil {
		t.Fatalf("saving result: %v", err)
	}

	stats, err := Gather(ctx, s)
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	want := []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	for i, dc := range stats.DayCoverage {
		if dc.Day != want[i] {
			t.Errorf("coverage position %d: expected %s, got %s", i, want[i], dc.Day)
		}
	}
	if stats.DayCoverage[4].Count != 1 {
		t.Errorf("expected friday count 1, got %d", stats.DayCoverage[4].Count)
	}
	if stats.DayCoverage[0].Count != 0 {
		t.Errorf("expected monday count 0, got %d", stats.DayCoverage[0].Count)
	}
}

func TestBuildQualityAlerts(t *testing.T) {
	tests := []struct {
		name       string
		stats      Stats
		wantAlerts int
	}{
		{
			name:       "healthy history",
			stats:      Stats{TotalExtractions: 50, AvgConfidence: 0.7, SuccessRate: 0.95},
			wantAlerts: 0,
		},
		{
			name:       "low confidence",
			stats:      Stats{TotalExtractions: 50, AvgConfidence: 0.2, SuccessRate: 0.95},
			wantAlerts: 1,
		},
		{
			name:       "low success rate",
			stats:      Stats{TotalExtractions: 50, AvgConfidence: 0.7, SuccessRate: 0.5},
			wantAlerts: 1,
		},
		{
			name:       "small history suppresses quality alerts",
			stats:      Stats{TotalExtractions: 3, AvgConfidence: 0.1, SuccessRate: 0.3},
			wantAlerts: 0,
		},
		{
			name:       "large database",
			stats:      Stats{TotalExtractions: 50, AvgConfidence: 0.7, SuccessRate: 0.95, StorageBytes: 300 * 1024 * 1024},
			wantAlerts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := buildQualityAlerts(&tt.stats)
			if len(alerts) != tt.wantAlerts {
				t.Errorf("expected %d alerts, got %d: %v", tt.wantAlerts, len(alerts), alerts)
			}
		})
	}
}
