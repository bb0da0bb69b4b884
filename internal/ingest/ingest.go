// Package ingest turns input files into OCR annotations ready for the
// extraction engine.
//
// Each supported format (annotation JSON, plain text, PDF, scanned image)
// has its own loader that implements the Loader interface. The resolver
// picks a loader by file extension and dispatches to it.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quillback/logbook/internal/ocr"
)

// Loader handles a specific input format.
type Loader interface {
	// CanHandle returns true if this loader supports the given file path.
	CanHandle(path string) bool

	// Load reads the file and produces an annotation for extraction.
	Load(ctx context.Context, path string) (*ocr.Annotation, error)
}

// Resolver dispatches input files to format loaders.
type Resolver struct {
	loaders []Loader
}

// NewResolver builds a resolver with the standard loader set. The OCR
// provider may be nil; image files are then rejected with an error that
// names the missing configuration.
func NewResolver(provider ocr.Provider) *Resolver {
	return &Resolver{
		loaders: []Loader{
			&AnnotationLoader{},
			&PDFLoader{},
			&ImageLoader{Provider: provider},
			&TextLoader{}, // last: claims extensionless paths as fallback
		},
	}
}

// LoaderFor returns the first loader that claims the path, or nil when no
// loader supports it.
func (r *Resolver) LoaderFor(path string) Loader {
	for _, l := range r.loaders {
		if l.CanHandle(path) {
			return l
		}
	}
	return nil
}

// Load resolves path to a loader and runs it.
func (r *Resolver) Load(ctx context.Context, path string) (*ocr.Annotation, error) {
	loader := r.LoaderFor(path)
	if loader == nil {
		return nil, fmt.Errorf("unsupported file type %q", strings.ToLower(filepath.Ext(path)))
	}
	return loader.Load(ctx, path)
}

// Report summarizes a batch ingestion run.
type Report struct {
	FilesScanned int
	FilesLoaded  int
	FilesFailed  int
	Saved        int
	Duplicates   int
	Errors       []FileError
}

// Add merges another report into this one.
func (r *Report) Add(other *Report) {
	r.FilesScanned += other.FilesScanned
	r.FilesLoaded += other.FilesLoaded
	r.FilesFailed += other.FilesFailed
	r.Saved += other.Saved
	r.Duplicates += other.Duplicates
	r.Errors = append(r.Errors, other.Errors...)
}

// RecordError marks a file as failed and keeps the message for the
// end-of-run summary.
func (r *Report) RecordError(file string, err error) {
	r.FilesFailed++
	r.Errors = append(r.Errors, FileError{File: file, Message: err.Error()})
}

// FileError records a non-fatal per-file error during ingestion.
type FileError struct {
	File    string
	Message string
}
