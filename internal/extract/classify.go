package extract

import (
	"strings"
	"unicode/utf8"
)

// isActivityContent decides whether a line carries real activity text.
// Rules run in order; the first rejection wins:
//  1. too short after trimming
//  2. matches a metadata pattern
//  3. starts with a date and the remainder is too short to stand alone
//  4. too few words
func (e *Engine) isActivityContent(line string) bool {
	trimmed := strings.TrimSpace(line)
	if utf8.RuneCountInString(trimmed) < e.opts.MinContentLength {
		return false
	}
	if e.looksLikeMetadata(trimmed) {
		return false
	}
	if loc := e.lib.leadingDate.FindStringIndex(trimmed); loc != nil {
		rest := strings.TrimSpace(trimmed[loc[1]:])
		if utf8.RuneCountInString(rest) <= e.opts.MinDateStrippedLength {
			return false
		}
	}
	if len(strings.Fields(trimmed)) < e.opts.MinWordCount {
		return false
	}
	return true
}

// looksLikeMetadata reports whether a line is logbook form furniture:
// page and week labels, boilerplate headings, signature and identity
// fields, bare dates, label-only lines, contact details, separators.
func (e *Engine) looksLikeMetadata(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}

	for _, p := range e.lib.skip {
		if p.regex.MatchString(trimmed) {
			return true
		}
	}

	// A line that is nothing but a date, month, year, or day ordinal.
	if e.lib.bareDateLine.MatchString(trimmed) ||
		e.lib.bareMonthLine.MatchString(trimmed) ||
		e.lib.bareYearLine.MatchString(trimmed) ||
		e.lib.bareOrdinalLine.MatchString(trimmed) {
		return true
	}

	if isLabelOnly(trimmed, e.opts.MaxLabelWords) {
		return true
	}

	if e.lib.email.MatchString(trimmed) || e.lib.url.MatchString(trimmed) {
		return true
	}

	if isSeparatorRun(trimmed) {
		return true
	}

	return false
}

// isLabelOnly detects short form labels like "Department:" or
// "Week commencing:" where the colon ends the line.
func isLabelOnly(line string, maxWords int) bool {
	if !strings.HasSuffix(line, ":") {
		return false
	}
	head := strings.TrimSpace(strings.TrimSuffix(line, ":"))
	return len(strings.Fields(head)) <= maxWords
}

// isSeparatorRun reports whether the line consists only of ruling and
// box-drawing punctuation, the horizontal lines of a printed form.
func isSeparatorRun(s string) bool {
	trimmed := strings.TrimSpace(s)
	if utf8.RuneCountInString(trimmed) < 3 {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '-', '_', '=', '*', '.', '~', '—', '–', '|', '+', ' ', '\t':
		default:
			return false
		}
	}
	return true
}
