/*
errors.go - Error types for wage calculations

ERROR CATEGORIES:
  1. Parse errors - clock strings that are not HH:MM
  2. Input errors - non-positive or non-finite wage/day/hour values

  Both are client errors: the caller fixes the input and tries again.
  Nothing here is transient, so nothing is retryable.

USAGE:
  hours, err := wage.ParseWorkTime("9:0", "18:00", 60)
  if errors.Is(err, wage.ErrParse) { ... }

  var inErr *wage.InvalidInputError
  if errors.As(err, &inErr) { log(inErr.Field) }
*/
package wage

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrParse is returned when a clock string is not a valid HH:MM time.
	ErrParse = errors.New("parse error")

	// ErrInvalidInput is returned when a numeric input is outside its domain.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParseError describes a malformed clock string.
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %q: %s", e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// InvalidInputError names the offending field and value.
type InvalidInputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// IsClientError reports whether err was caused by caller-supplied input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrParse) || errors.Is(err, ErrInvalidInput)
}
