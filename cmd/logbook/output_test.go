package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/store"
)

func TestPickFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"table", "table", false},
		{"json", "json", false},
		{"xml", "", true},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := pickFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("pickFormat(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("pickFormat(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("pickFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Day", "Activities"},
		[][]string{{"Monday", "Fixed the pump"}, {"Friday", "Cleaned the shop"}},
		[]columnAlignment{alignLeft, alignLeft},
	)

	for _, want := range []string{"Day", "Monday", "Fixed the pump", "Friday"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in rendered table:\n%s", want, out)
		}
	}
}

func TestRenderTable_NoHeaders(t *testing.T) {
	if out := renderTable(nil, nil, nil); out != "" {
		t.Errorf("expected empty render, got %q", out)
	}
}

func TestRenderResult(t *testing.T) {
	res := extract.Result{
		Success: true,
		Activities: map[extract.DayKey]string{
			extract.Monday: "Fixed the hydraulic pump",
		},
		Confidence: 0.65,
		Warnings:   []string{"no activities found for: tuesday"},
	}

	var buf bytes.Buffer
	renderResult(&buf, res)
	out := buf.String()

	if !strings.Contains(out, "Monday") {
		t.Errorf("expected day name:\n%s", out)
	}
	if !strings.Contains(out, "Confidence: 0.65") {
		t.Errorf("expected confidence line:\n%s", out)
	}
	if !strings.Contains(out, "Warning: no activities found for: tuesday") {
		t.Errorf("expected warning line:\n%s", out)
	}
}

func TestRenderResult_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderResult(&buf, extract.Result{})

	if !strings.Contains(buf.String(), "No activities extracted.") {
		t.Errorf("expected empty notice, got:\n%s", buf.String())
	}
}

func TestRenderExtraction(t *testing.T) {
	e := &store.Extraction{
		ID:         7,
		Source:     "week12.png",
		Confidence: 0.8,
		Activities: map[extract.DayKey]string{
			extract.Wednesday: "Calibrated the torque wrenches",
		},
		CreatedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	renderExtraction(&buf, e)
	out := buf.String()

	for _, want := range []string{"Extraction #7", "week12.png", "2026-03-02", "Wednesday", "torque wrenches"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderHits_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderHits(&buf, nil)

	if !strings.Contains(buf.String(), "No matches.") {
		t.Errorf("expected empty notice, got:\n%s", buf.String())
	}
}

func TestRenderHits_StripsMarkers(t *testing.T) {
	hits := []*store.SearchHit{
		{ExtractionID: 3, Day: "monday", Snippet: "fixed the <b>pump</b> seal", Source: "week.png"},
	}

	var buf bytes.Buffer
	renderHits(&buf, hits)
	out := buf.String()

	if strings.Contains(out, "<b>") {
		t.Errorf("markers should be stripped:\n%s", out)
	}
	if !strings.Contains(out, "fixed the pump seal") {
		t.Errorf("expected snippet text:\n%s", out)
	}
	if !strings.Contains(out, "Monday") {
		t.Errorf("expected capitalized day:\n%s", out)
	}
}

func TestTitleDay(t *testing.T) {
	if got := titleDay("monday"); got != "Monday" {
		t.Errorf("titleDay(monday) = %q", got)
	}
}

func TestDayInitials(t *testing.T) {
	activities := map[extract.DayKey]string{
		extract.Friday: "Cleaned the shop",
		extract.Monday: "Fixed the pump",
	}

	if got := dayInitials(activities); got != "Mon Fri" {
		t.Errorf("dayInitials = %q, want %q", got, "Mon Fri")
	}
}

func TestDayInitials_Empty(t *testing.T) {
	if got := dayInitials(nil); got != "" {
		t.Errorf("dayInitials(nil) = %q, want empty", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
