package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// cleanLineContent strips date and time debris from one line: numeric and
// month-name dates, bare years, timestamps, brackets left empty by the
// stripping, runs of whitespace, and leading connector punctuation.
func (e *Engine) cleanLineContent(line string) string {
	s := e.lib.numericDate.ReplaceAllString(line, " ")
	s = e.lib.dayMonth.ReplaceAllString(s, " ")
	s = e.lib.monthDay.ReplaceAllString(s, " ")
	s = e.lib.bareYear.ReplaceAllString(s, " ")
	s = e.lib.timestamp.ReplaceAllString(s, " ")
	s = e.lib.emptyBrackets.ReplaceAllString(s, " ")
	s = e.lib.spaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = e.lib.leadingJunk.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// cleanActivityText turns the raw accumulated text for one day into final
// activity prose. Lines are cleaned individually, re-classified, joined
// into sentences, and given consistent capitalization and a terminal
// period. Applying it to its own output returns the output unchanged.
func (e *Engine) cleanActivityText(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		cleaned := e.cleanLineContent(line)
		if cleaned == "" {
			continue
		}
		if !e.isActivityContent(cleaned) {
			continue
		}
		kept = append(kept, cleaned)
	}
	if len(kept) == 0 {
		return ""
	}

	joined := strings.Join(kept, ". ")
	joined = e.lib.periodRun.ReplaceAllString(joined, ".")
	joined = strings.TrimSpace(e.lib.trailingStrays.ReplaceAllString(joined, ""))
	if joined == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(joined)
	joined = string(unicode.ToUpper(r)) + joined[size:]
	if !strings.HasSuffix(joined, ".") {
		joined += "."
	}
	return joined
}

// stripGlobalNoise removes emails, URLs, dates, timestamps, and week
// markers from the whole text before it is split into lines. Day names
// are left untouched.
func (e *Engine) stripGlobalNoise(text string) string {
	s := e.lib.email.ReplaceAllString(text, " ")
	s = e.lib.url.ReplaceAllString(s, " ")
	s = e.lib.numericDate.ReplaceAllString(s, " ")
	s = e.lib.dayMonth.ReplaceAllString(s, " ")
	s = e.lib.monthDay.ReplaceAllString(s, " ")
	s = e.lib.timestamp.ReplaceAllString(s, " ")
	s = e.lib.weekMarker.ReplaceAllString(s, " ")
	return s
}
