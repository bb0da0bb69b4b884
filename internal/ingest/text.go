package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/quillback/logbook/internal/ocr"
)

// TextLoader handles plain text files. Also acts as the fallback for
// extensionless paths.
type TextLoader struct{}

func (t *TextLoader) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".text" || ext == ""
}

// Load wraps the file contents in a flat annotation. Line structure is
// preserved; the extraction engine does its own normalization.
func (t *TextLoader) Load(ctx context.Context, path string) (*ocr.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &ocr.Annotation{Text: text}, nil
}
