package extract

import (
	"errors"
	"fmt"
)

// ErrorKind classifies extraction failures.
type ErrorKind string

// Extraction error kinds
const (
	KindMalformedXML    ErrorKind = "malformed_xml"
	KindNoMatchingShape ErrorKind = "no_matching_shape"
)

// Sentinels matched by ExtractionError.Is
var (
	ErrMalformedXML    = errors.New("malformed XML")
	ErrNoMatchingShape = errors.New("no record shape matched")
)

// ExtractionError represents a failure to turn a payload into records.
type ExtractionError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extraction error: %s", e.sentinel())
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error's kind.
func (e *ExtractionError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ExtractionError) sentinel() error {
	if e.Kind == KindNoMatchingShape {
		return ErrNoMatchingShape
	}
	return ErrMalformedXML
}

func malformed(detail string, cause error) *ExtractionError {
	return &ExtractionError{Kind: KindMalformedXML, Detail: detail, Cause: cause}
}

// NoMatchError builds the error callers return when they treat an empty extraction as fatal.
func NoMatchError(namespace string) *ExtractionError {
	detail := "no namespace declared"
	if namespace != "" {
		detail = fmt.Sprintf("namespace %q", namespace)
	}
	return &ExtractionError{Kind: KindNoMatchingShape, Detail: detail}
}
