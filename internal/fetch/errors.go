package fetch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/basket-scraper/internal/types"
)

// ErrNoContent is matched by every AcquisitionError.
var ErrNoContent = errors.New("no content obtained")

// ErrBackendUnavailable is reported by browser strategies when no renderer is configured.
var ErrBackendUnavailable = errors.New("rendering backend not configured")

// ErrEmptyContent is reported when a strategy ran but produced only whitespace.
var ErrEmptyContent = errors.New("strategy returned empty text")

// ErrNotXML is reported by the HTTP strategy when the body does not open as an XML document.
var ErrNotXML = errors.New("response body is not an XML document")

// AttemptFailure records why a single strategy did not produce a payload.
type AttemptFailure struct {
	Strategy types.Provenance
	Err      error
}

func (f AttemptFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Strategy, f.Err)
}

// AcquisitionError is returned when every strategy failed.
type AcquisitionError struct {
	URL      string
	Attempts []AttemptFailure
}

func (e *AcquisitionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("acquisition error for %s: %v", e.URL, ErrNoContent)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.String())
	}
	return fmt.Sprintf("acquisition error for %s: %v (%s)", e.URL, ErrNoContent, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrNoContent) hold for any AcquisitionError.
func (e *AcquisitionError) Is(target error) bool {
	return target == ErrNoContent
}

// Unwrap exposes the individual strategy errors.
func (e *AcquisitionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}
