package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNoText is returned when a file parses but yields no extractable text.
	ErrNoText = errors.New("no extractable text")

	// ErrUnsupportedFormat is returned for file types with no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ExtractionError wraps a failure to extract text from a specific file.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
