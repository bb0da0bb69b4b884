package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quillback/logbook/internal/ocr"
)

// ImageLoader handles scanned page images by sending them through an OCR
// provider.
type ImageLoader struct {
	Provider ocr.Provider
}

func (i *ImageLoader) CanHandle(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func (i *ImageLoader) Load(ctx context.Context, path string) (*ocr.Annotation, error) {
	if i.Provider == nil {
		return nil, fmt.Errorf("no OCR provider configured for image input (set an API key or install tesseract)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ann, err := i.Provider.Recognize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s OCR: %w", i.Provider.Name(), err)
	}
	return ann, nil
}
