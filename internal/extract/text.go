package extract

import (
	"context"
	"os"
)

// TextExtractor handles plain-text formats. Form feeds act as page breaks;
// files without them are a single page.
type TextExtractor struct{}

// NewTextExtractor creates a plain-text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

var _ Extractor = (*TextExtractor)(nil)

// SupportedExtensions returns the extensions handled by this extractor.
func (e *TextExtractor) SupportedExtensions() []string {
	return []string{".txt", ".md", ".text"}
}

// ExtractPages reads the file and splits it on form feeds.
func (e *TextExtractor) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	pages := SplitPages(string(data))
	if len(pages) == 0 {
		return nil, &ExtractionError{Path: path, Err: ErrNoText}
	}
	return pages, nil
}
