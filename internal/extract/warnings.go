package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// buildWarnings derives quality warnings from the populated days:
// nothing detected, days missing from the week, or content too short to
// be a real day's work. Warnings list days in week order.
func (e *Engine) buildWarnings(days map[DayKey]string) []string {
	warnings := []string{}

	populated := 0
	for _, d := range Weekdays() {
		if days[d] != "" {
			populated++
		}
	}

	switch {
	case populated == 0:
		warnings = append(warnings, "no activities detected: expected a Monday to Friday weekly layout")
	case populated < len(Weekdays()):
		missing := make([]string, 0, len(Weekdays())-populated)
		for _, d := range Weekdays() {
			if days[d] == "" {
				missing = append(missing, d.Display())
			}
		}
		warnings = append(warnings, fmt.Sprintf("missing days: %s", strings.Join(missing, ", ")))
	}

	for _, d := range Weekdays() {
		content := days[d]
		if content == "" {
			continue
		}
		if utf8.RuneCountInString(content) < e.opts.ShortActivityLength {
			warnings = append(warnings, fmt.Sprintf("very short content for %s", d.Display()))
		}
	}

	return warnings
}
