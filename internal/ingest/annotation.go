package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quillback/logbook/internal/ocr"
)

// AnnotationLoader handles .json files holding OCR output: either a raw
// Vision API response envelope or an already-unwrapped annotation.
type AnnotationLoader struct{}

// visionEnvelope is the outer shape of a saved images:annotate response.
type visionEnvelope struct {
	Responses []struct {
		FullTextAnnotation *ocr.Annotation `json:"fullTextAnnotation"`
	} `json:"responses"`
}

func (a *AnnotationLoader) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

// Load parses annotation JSON. A saved Vision response is unwrapped to its
// first fullTextAnnotation; anything else goes through DecodeAnnotation,
// which also accepts a bare JSON string.
func (a *AnnotationLoader) Load(ctx context.Context, path string) (*ocr.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if ann := unwrapVisionResponse(data); ann != nil {
		return ann, nil
	}

	ann, err := ocr.DecodeAnnotation(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ann, nil
}

// unwrapVisionResponse extracts the annotation from a raw API response
// envelope. Returns nil when data is not envelope-shaped.
func unwrapVisionResponse(data []byte) *ocr.Annotation {
	var env visionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}
	if len(env.Responses) == 0 || env.Responses[0].FullTextAnnotation == nil {
		return nil
	}
	return env.Responses[0].FullTextAnnotation
}
