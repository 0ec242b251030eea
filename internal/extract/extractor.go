// Package extract turns uploaded documents into per-page text and
// overlapping word chunks for indexing.
package extract

import (
	"context"
	"path/filepath"
	"strings"
)

// Page holds the extracted text of a single page. Numbers start at 1.
type Page struct {
	Number int
	Text   string
}

// Extractor extracts per-page text from a source file.
// Pages with no extractable text are omitted from the result.
type Extractor interface {
	// ExtractPages returns the non-empty pages of the file in order.
	ExtractPages(ctx context.Context, path string) ([]Page, error)

	// SupportedExtensions returns the lowercase file extensions
	// (including the dot) this extractor handles.
	SupportedExtensions() []string
}

// Registry selects an extractor by file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds a registry over the given extractors.
// Later extractors win on extension conflicts.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	for _, e := range extractors {
		for _, ext := range e.SupportedExtensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// DefaultRegistry returns a registry with the PDF and plain-text extractors.
func DefaultRegistry() *Registry {
	return NewRegistry(NewTextExtractor(), NewPDFExtractor())
}

// ForFile returns the extractor for the file's extension.
func (r *Registry) ForFile(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, &ExtractionError{Path: path, Err: ErrUnsupportedFormat}
	}
	return e, nil
}

// ExtractPages extracts the file with the extractor registered for its
// extension.
func (r *Registry) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	e, err := r.ForFile(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractPages(ctx, path)
}
