package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can substitute the pdftotext invocation.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		if stderr != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, stderr)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// PDFExtractor extracts page text from PDF files using the poppler
// pdftotext tool. pdftotext separates pages with form feeds, which maps
// directly onto the page structure we need.
type PDFExtractor struct {
	runner CommandRunner
}

// NewPDFExtractor creates a PDF extractor using the system pdftotext binary.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{runner: execRunner{}}
}

// NewPDFExtractorWithRunner creates a PDF extractor with a custom runner.
func NewPDFExtractorWithRunner(runner CommandRunner) *PDFExtractor {
	return &PDFExtractor{runner: runner}
}

var _ Extractor = (*PDFExtractor)(nil)

// SupportedExtensions returns the extensions handled by this extractor.
func (e *PDFExtractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// ExtractPages runs pdftotext and splits its output on form feeds.
// Page numbers are assigned by position in the PDF, so a blank page 1
// still pushes the first text page to number 2.
func (e *PDFExtractor) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	out, err := e.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
		return nil, &ExtractionError{Path: path, Err: err}
	}

	pages := SplitPages(string(out))
	if len(pages) == 0 {
		return nil, &ExtractionError{Path: path, Err: ErrNoText}
	}
	return pages, nil
}

// InstallInstructions tells operators how to get pdftotext.
func InstallInstructions() string {
	return "pdftotext is required for PDF ingestion:\n" +
		"  macOS:  brew install poppler\n" +
		"  Debian: apt install poppler-utils"
}

// SplitPages splits form-feed separated text into non-empty pages,
// preserving positional page numbers.
func SplitPages(text string) []Page {
	raw := strings.Split(text, "\f")
	pages := make([]Page, 0, len(raw))
	for i, p := range raw {
		if strings.TrimSpace(p) == "" {
			continue
		}
		pages = append(pages, Page{Number: i + 1, Text: p})
	}
	return pages
}
