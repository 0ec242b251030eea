package llm

import "fmt"

// ErrorKind classifies generation failures so callers can degrade
// gracefully instead of crashing.
type ErrorKind string

const (
	// KindAuthMissing means no API key is configured for the provider.
	KindAuthMissing ErrorKind = "auth_missing"
	// KindRequestFailed means the provider call failed outright.
	KindRequestFailed ErrorKind = "request_failed"
	// KindTimeout means the wall-clock generation budget expired.
	KindTimeout ErrorKind = "timeout"
	// KindUnexpectedResponse means the provider answered in a shape we
	// could not interpret.
	KindUnexpectedResponse ErrorKind = "unexpected_response_shape"
)

// GenerationError is the typed failure returned by generation clients.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("generation %s", e.Kind)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// AsGenerationError extracts a GenerationError from an error chain.
func AsGenerationError(err error) (*GenerationError, bool) {
	for err != nil {
		if ge, ok := err.(*GenerationError); ok {
			return ge, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
