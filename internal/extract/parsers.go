package extract

import (
	"strings"

	"github.com/quillback/logbook/internal/ocr"
)

// dayAccumulator gathers raw text per day while a parser walks the input,
// cleaning on flush. A flush keeps only non-empty cleaned text and never
// replaces a day's existing content with something shorter.
type dayAccumulator struct {
	engine  *Engine
	days    map[DayKey]string
	current DayKey
	buf     []string
}

func newDayAccumulator(e *Engine) *dayAccumulator {
	return &dayAccumulator{engine: e, days: map[DayKey]string{}}
}

func (a *dayAccumulator) open(day DayKey, seed string) {
	a.flush()
	a.current = day
	if seed != "" {
		a.buf = append(a.buf, seed)
	}
}

func (a *dayAccumulator) add(text string) {
	if a.current == "" || text == "" {
		return
	}
	a.buf = append(a.buf, text)
}

func (a *dayAccumulator) close() {
	a.flush()
	a.current = ""
}

func (a *dayAccumulator) flush() {
	if a.current == "" || len(a.buf) == 0 {
		a.buf = a.buf[:0]
		return
	}
	cleaned := a.engine.cleanActivityText(strings.Join(a.buf, "\n"))
	a.buf = a.buf[:0]
	if cleaned == "" {
		return
	}
	if len(cleaned) > len(a.days[a.current]) {
		a.days[a.current] = cleaned
	}
}

// parseStructured walks the page/block hierarchy in order. A block whose
// text opens with a day header starts that day; subsequent blocks extend
// it until the next header.
func (e *Engine) parseStructured(ann *ocr.Annotation) map[DayKey]string {
	acc := newDayAccumulator(e)
	for _, page := range ann.Pages {
		for _, block := range page.Blocks {
			text := strings.TrimSpace(block.Text())
			if text == "" {
				continue
			}
			if day, rest, ok := e.lib.matchDayHeader(text); ok {
				acc.open(day, rest)
				continue
			}
			acc.add(text)
		}
	}
	acc.close()
	return acc.days
}

// parseLines scans flat text line by line. Global noise (emails, URLs,
// dates, timestamps, week markers) is stripped before splitting. Content
// attaches to the last seen day header only while within the proximity
// window; past it the day closes.
func (e *Engine) parseLines(text string) map[DayKey]string {
	acc := newDayAccumulator(e)
	sinceHeader := 0
	for _, line := range strings.Split(e.stripGlobalNoise(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// Header match runs before the metadata skip: a bare "Monday:"
		// line would otherwise be eaten by the label-only rule.
		if day, rest, ok := e.lib.matchDayHeader(trimmed); ok {
			acc.open(day, rest)
			sinceHeader = 0
			continue
		}
		if e.looksLikeMetadata(trimmed) {
			continue
		}
		if acc.current == "" {
			continue
		}
		sinceHeader++
		if sinceHeader > e.opts.HeaderProximityLines {
			acc.close()
			continue
		}
		acc.add(trimmed)
	}
	acc.close()
	return acc.days
}

// parseContext is the last resort for OCR output where day names sit in
// the middle of run-together lines. Any day indicator claims its line;
// later indicator-free lines extend the most recent day with no
// proximity limit.
func (e *Engine) parseContext(text string) map[DayKey]string {
	acc := newDayAccumulator(e)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if day, rest, ok := e.lib.findDayIndicator(trimmed); ok {
			acc.open(day, rest)
			continue
		}
		if e.looksLikeMetadata(trimmed) {
			continue
		}
		acc.add(trimmed)
	}
	acc.close()
	return acc.days
}
