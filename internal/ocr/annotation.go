// Package ocr defines the annotation model produced by OCR providers and
// consumed by the extraction engine, plus the provider implementations
// themselves (Google Cloud Vision, local Tesseract).
//
// An Annotation is a tagged union resolved by shape: flat text only, or
// flat text plus a page hierarchy (pages → blocks → paragraphs → words →
// symbols). Providers fill in whatever their backend reports; the engine
// decides which parsing strategy the shape supports.
package ocr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Annotation is the raw OCR output for one scanned page.
type Annotation struct {
	// Text is the full flat text. Always present when any text was read,
	// even for hierarchical annotations.
	Text string `json:"text"`
	// Pages is the optional layout hierarchy. Empty for flat annotations.
	Pages []Page `json:"pages,omitempty"`
}

// Page is one physical page of the scan.
type Page struct {
	Blocks []Block `json:"blocks,omitempty"`
}

// Block is a visually coherent region of a page.
type Block struct {
	Paragraphs []Paragraph `json:"paragraphs,omitempty"`
}

// Paragraph groups words sharing layout.
type Paragraph struct {
	Words []Word `json:"words,omitempty"`
}

// Word is a single token, stored as its symbols.
type Word struct {
	Symbols []Symbol `json:"symbols,omitempty"`
}

// Symbol is one recognized character.
type Symbol struct {
	Text string `json:"text"`
}

// Text assembles the word from its symbols.
func (w Word) Text() string {
	var sb strings.Builder
	for _, s := range w.Symbols {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Text joins the paragraph's words with single spaces.
func (p Paragraph) Text() string {
	parts := make([]string, 0, len(p.Words))
	for _, w := range p.Words {
		if t := w.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Text joins the block's paragraphs with newlines.
func (b Block) Text() string {
	parts := make([]string, 0, len(b.Paragraphs))
	for _, p := range b.Paragraphs {
		if t := p.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// HasStructure reports whether the annotation carries a page hierarchy.
func (a *Annotation) HasStructure() bool {
	return a != nil && len(a.Pages) > 0
}

// BlockCount returns the total number of blocks across all pages.
func (a *Annotation) BlockCount() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, p := range a.Pages {
		n += len(p.Blocks)
	}
	return n
}

// FlatText returns the annotation's text, assembling it from the hierarchy
// when the flat field is empty. Blocks are separated by newlines.
func (a *Annotation) FlatText() string {
	if a == nil {
		return ""
	}
	if strings.TrimSpace(a.Text) != "" {
		return a.Text
	}
	var parts []string
	for _, pg := range a.Pages {
		for _, b := range pg.Blocks {
			if t := b.Text(); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// Empty reports whether the annotation contains no text at all, flat or
// hierarchical.
func (a *Annotation) Empty() bool {
	return a == nil || strings.TrimSpace(a.FlatText()) == ""
}

// DecodeAnnotation parses annotation JSON. It accepts the canonical object
// form ({"text": ..., "pages": [...]}) and, for convenience, a bare JSON
// string, which becomes a flat annotation.
func DecodeAnnotation(data []byte) (*Annotation, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty annotation payload")
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, fmt.Errorf("parsing annotation string: %w", err)
		}
		return &Annotation{Text: text}, nil
	}
	var ann Annotation
	if err := json.Unmarshal(data, &ann); err != nil {
		return nil, fmt.Errorf("parsing annotation: %w", err)
	}
	return &ann, nil
}
