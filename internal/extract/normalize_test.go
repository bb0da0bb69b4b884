package extract

import (
	"strings"
	"testing"
)

func TestCleanLineContent_StripsDates(t *testing.T) {
	e := testEngine()
	tests := []struct {
		in   string
		want string
	}{
		{"21/04/2025 serviced the generator", "serviced the generator"},
		{"serviced the generator on 21-04-25", "serviced the generator on"},
		{"21 April 2025 repaired the conveyor belt", "repaired the conveyor belt"},
		{"April 21, 2025 repaired the conveyor belt", "repaired the conveyor belt"},
		{"installed 2024 edition tooling", "installed edition tooling"},
		{"resumed work 8:00am at the bench", "resumed work at the bench"},
		{"logged readings at 10:30:15 pm today", "logged readings at today"},
	}
	for _, tt := range tests {
		if got := e.cleanLineContent(tt.in); got != tt.want {
			t.Errorf("cleanLineContent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanLineContent_StripsLeadingConnectors(t *testing.T) {
	e := testEngine()
	tests := []struct {
		in   string
		want string
	}{
		{"- serviced the generator", "serviced the generator"},
		{":- cleaned the workshop floor", "cleaned the workshop floor"},
		{"\u2022 checked oil levels", "checked oil levels"},
		{"   ... tightened loose fittings", "tightened loose fittings"},
	}
	for _, tt := range tests {
		if got := e.cleanLineContent(tt.in); got != tt.want {
			t.Errorf("cleanLineContent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanLineContent_CollapsesWhitespace(t *testing.T) {
	e := testEngine()
	got := e.cleanLineContent("serviced   the\tgenerator  housing")
	if got != "serviced the generator housing" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestCleanActivityText_JoinsLines(t *testing.T) {
	e := testEngine()
	raw := "fixed the cooling fan\nchecked oil levels\nreplaced the belt guard"
	got := e.cleanActivityText(raw)
	want := "Fixed the cooling fan. checked oil levels. replaced the belt guard."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanActivityText_DropsMetadataLines(t *testing.T) {
	e := testEngine()
	raw := "Supervisor's Signature\nfixed the cooling fan\nPage 3"
	got := e.cleanActivityText(raw)
	want := "Fixed the cooling fan."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanActivityText_CollapsesPeriodRuns(t *testing.T) {
	e := testEngine()
	got := e.cleanActivityText("calibrated the flow meters..\nverified pressure readings")
	want := "Calibrated the flow meters. verified pressure readings."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanActivityText_TrailingStrays(t *testing.T) {
	e := testEngine()
	got := e.cleanActivityText("aligned the drive belts,")
	want := "Aligned the drive belts."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanActivityText_Empty(t *testing.T) {
	e := testEngine()
	if got := e.cleanActivityText(""); got != "" {
		t.Errorf("empty input should clean to empty, got %q", got)
	}
	if got := e.cleanActivityText("Page 3\nWeek 5\n-----"); got != "" {
		t.Errorf("all-metadata input should clean to empty, got %q", got)
	}
}

func TestCleanActivityText_Idempotent(t *testing.T) {
	e := testEngine()
	inputs := []string{
		"fixed the cooling fan\nchecked oil levels",
		"21/04/2025 serviced the generator and logged the readings",
		"observed the casting process on the shop floor,",
		"calibrated the flow meters..\nverified pressure readings",
		"assisted with the quarterly stock audit at 10:30 am",
	}
	for _, in := range inputs {
		once := e.cleanActivityText(in)
		twice := e.cleanActivityText(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestStripGlobalNoise(t *testing.T) {
	e := testEngine()
	text := "Week 3 report for jane@works.example.com\nMonday 21/04/2025 replaced the hydraulic hoses\nsee https://intranet.example.com/docs for parts"
	got := e.stripGlobalNoise(text)

	for _, banned := range []string{"jane@works.example.com", "21/04/2025", "https://", "Week 3"} {
		if strings.Contains(got, banned) {
			t.Errorf("global strip left %q in %q", banned, got)
		}
	}
	if !strings.Contains(got, "Monday") {
		t.Error("global strip must leave day names untouched")
	}
	if !strings.Contains(got, "replaced the hydraulic hoses") {
		t.Error("global strip must leave activity words untouched")
	}
}
