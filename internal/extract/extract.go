// Package extract turns raw OCR annotations from scanned weekly logbook
// pages into structured weekday activities.
//
// The engine applies parsing strategies in order of decreasing structural
// trust, escalating when a strategy finds too little:
// - structured: walks the page/block hierarchy, splitting on day headers
// - lines: scans flat text line by line for day headers at line starts
// - context: last resort, finds day names anywhere inside messy lines
//
// All parsing is deterministic and pure. Data problems (empty pages,
// garbage text, missing days) never produce errors; they produce
// low-confidence results with warnings attached.
package extract

import (
	"strings"

	"github.com/quillback/logbook/internal/ocr"
)

// DayKey identifies a weekday in a logbook week. Weekends are not tracked.
type DayKey string

const (
	Monday    DayKey = "monday"
	Tuesday   DayKey = "tuesday"
	Wednesday DayKey = "wednesday"
	Thursday  DayKey = "thursday"
	Friday    DayKey = "friday"
)

// Weekdays returns the five tracked days in week order. Every iteration
// over days goes through this so output ordering is stable.
func Weekdays() []DayKey {
	return []DayKey{Monday, Tuesday, Wednesday, Thursday, Friday}
}

// displayNames maps day keys to their capitalized English names.
var displayNames = map[DayKey]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
}

// Display returns the capitalized English name of the day.
func (d DayKey) Display() string {
	return displayNames[d]
}

// Valid reports whether d is one of the five tracked weekdays.
func (d DayKey) Valid() bool {
	_, ok := displayNames[d]
	return ok
}

// Result is the outcome of structuring one annotation.
type Result struct {
	// Success is false only when the annotation contained no text at all.
	Success bool `json:"success"`
	// FullText is the flat text the engine worked from.
	FullText string `json:"full_text"`
	// Activities maps detected weekdays to cleaned activity text. Days with
	// no detected content are absent, never empty strings.
	Activities map[DayKey]string `json:"activities"`
	// Confidence estimates extraction quality in [0, 1] from the input's
	// structural signal.
	Confidence float64 `json:"confidence"`
	// Warnings lists human-readable quality notes (missing days, very
	// short content).
	Warnings []string `json:"warnings"`
}

// Options carries the engine's tunable thresholds. The zero value of any
// field means "use the default"; call Normalize to back-fill.
type Options struct {
	// MinContentLength is the minimum trimmed line length the classifier
	// accepts as activity content.
	MinContentLength int
	// MinDateStrippedLength is the minimum remainder length for a line
	// that starts with a date to still count as content.
	MinDateStrippedLength int
	// MinWordCount is the minimum number of words in an activity line.
	MinWordCount int
	// MaxLabelWords is the maximum word count for a line ending in ":" to
	// be treated as a form label rather than content.
	MaxLabelWords int
	// HeaderProximityLines is how many lines past a day header the line
	// parser keeps attaching content to that day.
	HeaderProximityLines int
	// MinStructuredDays is the fewest days the structured parser must
	// populate before its result is trusted.
	MinStructuredDays int
	// MaxLineDays is the populated-day count at or below which the line
	// parser escalates when the text is long.
	MaxLineDays int
	// EscalationTextLength is the text length above which a sparse line
	// parse escalates to the context parser.
	EscalationTextLength int
	// ShortActivityLength is the content length below which a per-day
	// "very short" warning is emitted.
	ShortActivityLength int
}

// DefaultOptions returns the recommended thresholds.
func DefaultOptions() Options {
	return Options{
		MinContentLength:      10,
		MinDateStrippedLength: 20,
		MinWordCount:          3,
		MaxLabelWords:         3,
		HeaderProximityLines:  15,
		MinStructuredDays:     3,
		MaxLineDays:           2,
		EscalationTextLength:  500,
		ShortActivityLength:   20,
	}
}

// Normalize back-fills zero fields with defaults so a partially populated
// Options behaves like DefaultOptions for the rest.
func (o Options) Normalize() Options {
	def := DefaultOptions()
	if o.MinContentLength <= 0 {
		o.MinContentLength = def.MinContentLength
	}
	if o.MinDateStrippedLength <= 0 {
		o.MinDateStrippedLength = def.MinDateStrippedLength
	}
	if o.MinWordCount <= 0 {
		o.MinWordCount = def.MinWordCount
	}
	if o.MaxLabelWords <= 0 {
		o.MaxLabelWords = def.MaxLabelWords
	}
	if o.HeaderProximityLines <= 0 {
		o.HeaderProximityLines = def.HeaderProximityLines
	}
	if o.MinStructuredDays <= 0 {
		o.MinStructuredDays = def.MinStructuredDays
	}
	if o.MaxLineDays <= 0 {
		o.MaxLineDays = def.MaxLineDays
	}
	if o.EscalationTextLength <= 0 {
		o.EscalationTextLength = def.EscalationTextLength
	}
	if o.ShortActivityLength <= 0 {
		o.ShortActivityLength = def.ShortActivityLength
	}
	return o
}

// Engine structures annotations into weekday activities. One Engine is
// safe for concurrent use; it holds no mutable state after construction.
type Engine struct {
	opts Options
	lib  *library
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(opts Options) *Engine {
	return &Engine{
		opts: opts.Normalize(),
		lib:  defaultLibrary,
	}
}

// strategy is one parsing attempt with an explicit escalation predicate.
// Strategies run in order; the first whose escalate returns false wins.
type strategy struct {
	name     string
	applies  func(ann *ocr.Annotation) bool
	run      func(ann *ocr.Annotation, text string) map[DayKey]string
	escalate func(found map[DayKey]string, text string) bool
}

func (e *Engine) strategies() []strategy {
	return []strategy{
		{
			name:    "structured",
			applies: func(a *ocr.Annotation) bool { return a.HasStructure() },
			run: func(a *ocr.Annotation, _ string) map[DayKey]string {
				return e.parseStructured(a)
			},
			escalate: func(found map[DayKey]string, _ string) bool {
				return len(found) < e.opts.MinStructuredDays
			},
		},
		{
			name:    "lines",
			applies: func(*ocr.Annotation) bool { return true },
			run: func(_ *ocr.Annotation, text string) map[DayKey]string {
				return e.parseLines(text)
			},
			escalate: func(found map[DayKey]string, text string) bool {
				return len(found) <= e.opts.MaxLineDays && len(text) > e.opts.EscalationTextLength
			},
		},
		{
			name:    "context",
			applies: func(*ocr.Annotation) bool { return true },
			run: func(_ *ocr.Annotation, text string) map[DayKey]string {
				return e.parseContext(text)
			},
			escalate: func(map[DayKey]string, string) bool { return false },
		},
	}
}

// Extract structures one annotation. It never returns an error: data
// problems surface as Success=false or as warnings on the result.
func (e *Engine) Extract(ann *ocr.Annotation) Result {
	text := ann.FlatText()
	res := Result{
		FullText:   text,
		Activities: map[DayKey]string{},
	}

	if ann.Empty() {
		res.Warnings = e.buildWarnings(res.Activities)
		return res
	}
	res.Success = true

	for _, s := range e.strategies() {
		if !s.applies(ann) {
			continue
		}
		found := s.run(ann, text)
		if s.escalate(found, text) {
			continue
		}
		res.Activities = found
		break
	}

	res.Confidence = scoreConfidence(ann, text)
	res.Warnings = e.buildWarnings(res.Activities)
	return res
}
