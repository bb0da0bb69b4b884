package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/quillback/logbook/internal/ocr"
)

// PDFLoader extracts the text layer of born-digital PDFs.
//
// Scanned logbooks usually arrive as PDFs wrapping page images with no
// text layer. The loader detects those and refuses with a pointer to the
// image path, so the engine never runs on a half-empty text layer.
type PDFLoader struct{}

// scanCharsPerPage is the text density below which a PDF with embedded
// images is assumed to be a scan.
const scanCharsPerPage = 50

func (p *PDFLoader) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

func (p *PDFLoader) Load(ctx context.Context, path string) (*ocr.Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}

	var pages []string
	totalChars := 0
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		pageText := extractPageText(pdfCtx, pageNr)
		if pageText == "" {
			continue
		}
		totalChars += len([]rune(pageText))
		pages = append(pages, pageText)
	}

	var charsPerPage float64
	if pdfCtx.PageCount > 0 {
		charsPerPage = float64(totalChars) / float64(pdfCtx.PageCount)
	}
	if charsPerPage < scanCharsPerPage && hasImageStreams(pdfCtx) {
		return nil, fmt.Errorf("%s looks like a scanned PDF with no usable text layer; export the pages as PNG or JPEG and run those through OCR", filepath.Base(path))
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no text content in %s", filepath.Base(path))
	}

	return &ocr.Annotation{Text: strings.Join(pages, "\n")}, nil
}

// extractPageText pulls one page's content stream and parses its text
// operators. Errors degrade to an empty page; the density check catches
// PDFs where that happens everywhere.
func extractPageText(pdfCtx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// hasImageStreams reports whether the PDF embeds image XObjects.
func hasImageStreams(pdfCtx *model.Context) bool {
	if pdfCtx.Optimize != nil {
		for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(pdfCtx, pageNr)) > 0 {
				return true
			}
		}
	}
	// Fallback when optimization data is absent: scan the xref table for
	// image subtype stream dicts.
	for _, entry := range pdfCtx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// pdfStringRe matches PDF string literals: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream walks the content stream operators that show or
// position text. Positioning operators (Td, TD, T*, ') become newlines so
// weekday headers keep their own lines for the extraction engine.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		// (text) Tj and [(text) -100 (more)] TJ
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}

		// (text) ' shows text on the next line
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}

		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")), bytes.Equal(line, []byte("T*")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString resolves PDF string escape sequences, including octal
// byte escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanPDFText collapses runs of spaces and tabs but keeps newlines.
// Flattening everything to one line would strip the weekday headers of
// their line starts.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = false
		case r == ' ' || r == '\t' || r == '\r':
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
