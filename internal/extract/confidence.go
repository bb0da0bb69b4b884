package extract

import (
	"strings"

	"github.com/quillback/logbook/internal/ocr"
)

// Confidence weights. Each structural signal the input carries adds its
// weight; the sum is capped at 1.0. More structure means the parsers had
// more to work with, so the result deserves more trust.
const (
	confAnyText        = 0.30 // any non-empty text at all
	confPageStructure  = 0.20 // at least one page in the hierarchy
	confBlockStructure = 0.20 // at least one block within the pages
	confTextOver100    = 0.15 // text longer than confTextShortLen
	confTextOver500    = 0.15 // text longer than confTextLongLen

	confTextShortLen = 100
	confTextLongLen  = 500
)

// scoreConfidence rates the structural signal of one annotation. Adding
// structure or length never lowers the score.
func scoreConfidence(ann *ocr.Annotation, text string) float64 {
	score := 0.0
	if strings.TrimSpace(text) != "" {
		score += confAnyText
	}
	if ann.HasStructure() {
		score += confPageStructure
	}
	if ann.BlockCount() > 0 {
		score += confBlockStructure
	}
	if len(text) > confTextShortLen {
		score += confTextOver100
	}
	if len(text) > confTextLongLen {
		score += confTextOver500
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
