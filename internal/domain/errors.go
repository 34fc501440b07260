package domain

import (
	"errors"
	"fmt"
)

// ErrorKind groups failures for statistics.
type ErrorKind string

const (
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindConnection ErrorKind = "connection"
	ErrorKindHTTPStatus ErrorKind = "http_status"
	ErrorKindRedirect   ErrorKind = "redirect"
	ErrorKindInvalidURL ErrorKind = "invalid_url"
	ErrorKindExtraction ErrorKind = "extraction"
)

// ErrUnusableDocument is returned when a body cannot be turned into a document.
var ErrUnusableDocument = errors.New("document is unusable")

// TransportError describes a failed fetch.
type TransportError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == ErrorKindHTTPStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError means the fetched body could not be used as a document.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// KindOf classifies err for reporting.
func KindOf(err error) ErrorKind {
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Kind
	}
	var extraction *ExtractionError
	if errors.As(err, &extraction) {
		return ErrorKindExtraction
	}
	return ErrorKindConnection
}
