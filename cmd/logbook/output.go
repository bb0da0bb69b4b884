package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/store"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func isTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// pickFormat resolves an explicit --format value against the terminal
// default: tables for humans, JSON for pipes.
func pickFormat(format string) (string, error) {
	switch format {
	case "":
		if isTTY() {
			return "table", nil
		}
		return "json", nil
	case "table", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: table, json)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// titleDay capitalizes a stored weekday key ("monday") for display.
func titleDay(day string) string {
	return cases.Title(language.Und).String(day)
}

// activityRows returns the populated weekday/activity pairs in week order.
func activityRows(activities map[extract.DayKey]string) [][]string {
	rows := make([][]string, 0, len(activities))
	for _, day := range extract.Weekdays() {
		if content, ok := activities[day]; ok {
			rows = append(rows, []string{day.Display(), content})
		}
	}
	return rows
}

func renderResult(w io.Writer, res extract.Result) {
	rows := activityRows(res.Activities)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No activities extracted.")
	} else {
		fmt.Fprintln(w, renderTable([]string{"Day", "Activities"}, rows, []columnAlignment{alignLeft, alignLeft}))
	}

	fmt.Fprintf(w, "\nConfidence: %.2f\n", res.Confidence)
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

func renderExtraction(w io.Writer, e *store.Extraction) {
	fmt.Fprintf(w, "Extraction #%d\n", e.ID)
	if e.Source != "" {
		fmt.Fprintf(w, "Source:     %s\n", e.Source)
	}
	fmt.Fprintf(w, "Created:    %s\n", e.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Confidence: %.2f\n", e.Confidence)
	fmt.Fprintln(w)

	rows := activityRows(e.Activities)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No activities.")
	} else {
		fmt.Fprintln(w, renderTable([]string{"Day", "Activities"}, rows, []columnAlignment{alignLeft, alignLeft}))
	}

	for _, warning := range e.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

// dayInitials renders the populated days of an extraction compactly, in
// week order ("Mon Tue Fri").
func dayInitials(activities map[extract.DayKey]string) string {
	parts := make([]string, 0, len(activities))
	for _, day := range extract.Weekdays() {
		if _, ok := activities[day]; ok {
			parts = append(parts, day.Display()[:3])
		}
	}
	return strings.Join(parts, " ")
}

var snippetMarkers = strings.NewReplacer("<b>", "", "</b>", "")

func renderHits(w io.Writer, hits []*store.SearchHit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}

	rows := make([][]string, 0, len(hits))
	for _, hit := range hits {
		rows = append(rows, []string{
			fmt.Sprintf("%d", hit.ExtractionID),
			titleDay(hit.Day),
			snippetMarkers.Replace(hit.Snippet),
			hit.Source,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Day", "Match", "Source"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	fmt.Fprintf(w, "\n%d matches\n", len(hits))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
