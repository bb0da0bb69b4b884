package extract

import (
	"regexp"
	"strings"
)

// dayPattern maps a compiled day-name pattern to its weekday.
type dayPattern struct {
	regex *regexp.Regexp
	day   DayKey
}

// skipPattern is a named metadata pattern. Lines matching any skip pattern
// are form furniture (labels, headings, signatures), not activity content.
type skipPattern struct {
	regex *regexp.Regexp
	name  string
}

// Pattern fragments shared between the anchored and unanchored forms.
// Longest alternates come first so abbreviations never shadow full names.
// Whitespace inside fragments is [ \t], never \s: these also run over the
// whole multi-line text, and a match must not swallow a line break.
const (
	monthNamesPat = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

	numericDatePat = `\d{1,2}[/\-.]\d{1,2}(?:[/\-.]\d{2,4})?`
	dayMonthPat    = `\d{1,2}(?:st|nd|rd|th)?[ \t]+(?:of[ \t]+)?(?:` + monthNamesPat + `)\.?(?:[ \t]*,?[ \t]*\d{4})?`
	monthDayPat    = `(?:` + monthNamesPat + `)\.?[ \t]+\d{1,2}(?:st|nd|rd|th)?(?:[ \t]*,?[ \t]*\d{4})?`
	bareYearPat    = `20\d{2}`
	ordinalPat     = `\d{1,2}(?:st|nd|rd|th)`
	timestampPat   = `\d{1,2}:\d{2}(?::\d{2})?[ \t]*(?:[ap]\.?m\b\.?)?`
	weekMarkerPat  = `week[ \t]*(?:no\.?|number|#)?[ \t]*\d+`
)

// library holds every compiled pattern the engine uses. It is built once
// at package init and shared read-only by all engines.
type library struct {
	dayHeaders  []*dayPattern // anchored at line start
	dayAnywhere []*dayPattern // unanchored, for context scanning
	skip        []*skipPattern

	numericDate *regexp.Regexp
	dayMonth    *regexp.Regexp
	monthDay    *regexp.Regexp
	bareYear    *regexp.Regexp
	ordinal     *regexp.Regexp
	timestamp   *regexp.Regexp
	weekMarker  *regexp.Regexp
	email       *regexp.Regexp
	url         *regexp.Regexp

	leadingDate    *regexp.Regexp // date prefix on a content line
	leadingJunk    *regexp.Regexp // connector punctuation after cleaning
	emptyBrackets  *regexp.Regexp
	periodRun      *regexp.Regexp
	trailingStrays *regexp.Regexp
	spaceRun       *regexp.Regexp

	bareDateLine    *regexp.Regexp
	bareMonthLine   *regexp.Regexp
	bareYearLine    *regexp.Regexp
	bareOrdinalLine *regexp.Regexp
}

var defaultLibrary = newLibrary()

func newLibrary() *library {
	return &library{
		dayHeaders:  initDayHeaderPatterns(),
		dayAnywhere: initDayAnywherePatterns(),
		skip:        initSkipPatterns(),

		numericDate: regexp.MustCompile(`\b` + numericDatePat + `\b`),
		dayMonth:    regexp.MustCompile(`(?i)\b` + dayMonthPat + `\b`),
		monthDay:    regexp.MustCompile(`(?i)\b` + monthDayPat + `\b`),
		bareYear:    regexp.MustCompile(`\b` + bareYearPat + `\b`),
		ordinal:     regexp.MustCompile(`(?i)\b` + ordinalPat + `\b`),
		timestamp:   regexp.MustCompile(`(?i)\b` + timestampPat),
		weekMarker:  regexp.MustCompile(`(?i)\b` + weekMarkerPat + `\b`),
		email:       regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
		url:         regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`),

		leadingDate: regexp.MustCompile(
			`(?i)^\s*(?:` + numericDatePat + `|` + dayMonthPat + `|` + monthDayPat + `)[\s:,\-–—.]*`),
		leadingJunk:    regexp.MustCompile(`^[\s\-–—:;,.*•>]+`),
		emptyBrackets:  regexp.MustCompile(`\(\s*\)|\[\s*\]`),
		periodRun:      regexp.MustCompile(`\.(?:\s*\.)+`),
		trailingStrays: regexp.MustCompile(`[\s,;:\-–—]+$`),
		spaceRun:       regexp.MustCompile(`\s+`),

		bareDateLine: regexp.MustCompile(
			`(?i)^\s*(?:` + numericDatePat + `|` + dayMonthPat + `|` + monthDayPat + `)\s*$`),
		bareMonthLine:   regexp.MustCompile(`(?i)^\s*(?:` + monthNamesPat + `)\.?\s*$`),
		bareYearLine:    regexp.MustCompile(`^\s*` + bareYearPat + `\s*$`),
		bareOrdinalLine: regexp.MustCompile(`(?i)^\s*` + ordinalPat + `\s*$`),
	}
}

// Day-name alternates. OCR output uses full names, abbreviations, and
// occasionally "Day N" ordinals; "Day 1" is always Monday.
var dayNamePats = []struct {
	day   DayKey
	names string
	nth   string
}{
	{Monday, `monday|mon`, `0?1`},
	{Tuesday, `tuesday|tues|tue`, `0?2`},
	{Wednesday, `wednesday|wed`, `0?3`},
	{Thursday, `thursday|thurs|thur|thu`, `0?4`},
	{Friday, `friday|fri`, `0?5`},
}

func initDayHeaderPatterns() []*dayPattern {
	patterns := make([]*dayPattern, 0, len(dayNamePats)*2)
	for _, d := range dayNamePats {
		patterns = append(patterns, &dayPattern{
			regex: regexp.MustCompile(`(?i)^[\s>*•–—-]*(?:` + d.names + `)\b\.?\s*[:\-–—.]?\s*`),
			day:   d.day,
		})
	}
	for _, d := range dayNamePats {
		patterns = append(patterns, &dayPattern{
			regex: regexp.MustCompile(`(?i)^[\s>*•–—-]*day\s*` + d.nth + `\b\s*[:\-–—.]?\s*`),
			day:   d.day,
		})
	}
	return patterns
}

func initDayAnywherePatterns() []*dayPattern {
	patterns := make([]*dayPattern, 0, len(dayNamePats))
	for _, d := range dayNamePats {
		patterns = append(patterns, &dayPattern{
			regex: regexp.MustCompile(`(?i)\b(?:` + d.names + `)\b\.?\s*[:\-–—]?`),
			day:   d.day,
		})
	}
	return patterns
}

func initSkipPatterns() []*skipPattern {
	return []*skipPattern{
		{regexp.MustCompile(`(?i)^\s*(?:page|pg)\s*(?:no\.?|number|#)?\s*[:.\-]?\s*\d+\b`), "page_label"},
		{regexp.MustCompile(`(?i)^\s*p\.?\s*\d+\s*$`), "page_short"},
		{regexp.MustCompile(`^\s*\d{1,3}\s*/\s*\d{1,3}\s*$`), "page_fraction"},
		{regexp.MustCompile(`(?i)^\s*week\s*(?:no\.?|number|#)?\s*[:.\-]?\s*\d+\b`), "week_label"},
		{regexp.MustCompile(`(?i)\bweek\s+ending\b`), "week_ending"},
		{regexp.MustCompile(`(?i)description\s+of\s+work\s+done`), "work_done_heading"},
		{regexp.MustCompile(`(?i)weekly\s+progress\s+chart`), "progress_chart_heading"},
		{regexp.MustCompile(`(?i)\b(?:signature|signed|approved\s+by|checked\s+by|stamp)\b`), "signature"},
		{regexp.MustCompile(`(?i)\bsupervisor\b`), "supervisor"},
		{regexp.MustCompile(`(?i)^\s*date\s*[:.\-]`), "date_label"},
		{regexp.MustCompile(`(?i)^\s*time\s*(?:in|out)?\s*[:.\-]`), "time_label"},
		{regexp.MustCompile(`(?i)^\s*(?:student(?:'s)?\s*)?name\s*[:.\-]`), "name_label"},
		{regexp.MustCompile(`(?i)\b(?:matric(?:ulation)?|reg(?:istration)?\.?\s*(?:no|number))\b`), "student_id"},
		{regexp.MustCompile(`(?i)^\s*(?:company|organisation|organization|department|dept)\b`), "org_label"},
		{regexp.MustCompile(`(?i)\b(?:university|polytechnic|institute\s+of|college\s+of|faculty\s+of|school\s+of|siwes|itf)\b`), "institution"},
	}
}

// matchDayHeader matches a day header at the start of the line and returns
// the day plus whatever trails the header on the same line.
func (l *library) matchDayHeader(line string) (DayKey, string, bool) {
	for _, p := range l.dayHeaders {
		if loc := p.regex.FindStringIndex(line); loc != nil {
			return p.day, strings.TrimSpace(line[loc[1]:]), true
		}
	}
	return "", "", false
}

// findDayIndicator locates a day name anywhere in the line. The leftmost
// match wins. It returns the line with the indicator and any immediately
// preceding bare date removed.
func (l *library) findDayIndicator(line string) (DayKey, string, bool) {
	start, end := -1, -1
	var day DayKey
	for _, p := range l.dayAnywhere {
		loc := p.regex.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if start == -1 || loc[0] < start {
			start, end, day = loc[0], loc[1], p.day
		}
	}
	if start == -1 {
		return "", "", false
	}

	prefix := stripTrailingDate(l, line[:start])
	rest := strings.TrimSpace(line[end:])
	switch {
	case prefix == "":
		return day, rest, true
	case rest == "":
		return day, prefix, true
	default:
		return day, prefix + " " + rest, true
	}
}

var trailingSepRE = regexp.MustCompile(`[\s\-–—:,.|]+$`)

// stripTrailingDate removes a bare date (and surrounding separators) from
// the end of s. Dates glued to a day indicator ("21/04/2025 Monday") are
// labels for the day, not content.
func stripTrailingDate(l *library, s string) string {
	s = trailingSepRE.ReplaceAllString(s, "")
	for _, re := range []*regexp.Regexp{l.numericDate, l.dayMonth, l.monthDay, l.bareYear, l.ordinal} {
		locs := re.FindAllStringIndex(s, -1)
		if n := len(locs); n > 0 && locs[n-1][1] == len(s) {
			s = s[:locs[n-1][0]]
			break
		}
	}
	return strings.TrimSpace(trailingSepRE.ReplaceAllString(s, ""))
}
