package store

import (
	"crypto/sha256"
	"fmt"
)

// HashExtraction computes SHA-256 of source + full text for deduplication.
//
// Including the source means the same page text scanned from two different
// files creates two separate extractions (different provenance). This is
// the canonical hash used everywhere for extraction deduplication.
//
// Note: SQLite DATE() cannot parse Go's time format. Use SUBSTR(col, 1, 10)
// for date comparisons.
func HashExtraction(fullText, source string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0}) // separator
	h.Write([]byte(fullText))
	return fmt.Sprintf("%x", h.Sum(nil))
}
