package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrTransport          = errors.New("transport failure")
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrMalformedAttribute = errors.New("malformed attribute")
	ErrPageOverflow       = errors.New("page counter exhausted")
	ErrInvalidQuery       = errors.New("invalid query")
	ErrEmptyResponse      = errors.New("empty response body")
	ErrNoFetcher          = errors.New("no fetcher available for request")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Duration   time.Duration
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match ErrTransport.
func (e *FetchError) Is(target error) bool { return target == ErrTransport }

// ExtractKind classifies extraction failures.
type ExtractKind int

const (
	StructuralMismatch ExtractKind = iota
	MalformedAttribute
)

func (k ExtractKind) String() string {
	switch k {
	case StructuralMismatch:
		return "structural_mismatch"
	case MalformedAttribute:
		return "malformed_attribute"
	default:
		return "unknown"
	}
}

// ExtractError reports a result fragment that could not be mapped to a News record.
type ExtractError struct {
	Kind      ExtractKind
	Field     string
	Selector  string
	Attribute string
	// Fragment is the zero-based position of the fragment on its page, -1 when unknown.
	Fragment int
	// Page is the page number, 0 when extraction ran outside pagination.
	Page uint64
}

func (e *ExtractError) Error() string {
	var what string
	switch e.Kind {
	case MalformedAttribute:
		what = fmt.Sprintf("field %q: node matched by %q has no %q attribute", e.Field, e.Selector, e.Attribute)
	default:
		what = fmt.Sprintf("field %q: no node matches %q", e.Field, e.Selector)
	}
	switch {
	case e.Page > 0 && e.Fragment >= 0:
		return fmt.Sprintf("%s on page %d, fragment %d: %s", e.Kind, e.Page, e.Fragment, what)
	case e.Fragment >= 0:
		return fmt.Sprintf("%s in fragment %d: %s", e.Kind, e.Fragment, what)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, what)
	}
}

func (e *ExtractError) Unwrap() error {
	if e.Kind == MalformedAttribute {
		return ErrMalformedAttribute
	}
	return ErrStructuralMismatch
}

// ParseError wraps errors raised by the markup parser itself.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the post-processing pipeline.
type PipelineError struct {
	Stage string
	News  *News
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
