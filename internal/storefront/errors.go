// Package storefront defines the errors and shared signals used across the
// Menzzo storefront interaction layers.
package storefront

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means an element or text never resolved within its budget.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout means a readiness predicate, navigation or event race was
	// never satisfied.
	ErrTimeout = errors.New("operation timed out")
	// ErrVerification means a click went through but the expected state
	// (checked, selected) never appeared.
	ErrVerification = errors.New("state verification failed")
	// ErrContextLost means the page handle was closed or replaced and no
	// open tab matched the recovery pattern.
	ErrContextLost = errors.New("page context lost")
)

// StepError provides detailed context for a failed interaction step.
type StepError struct {
	Locale  string
	Step    string
	Target  string // text or selector that was attempted
	Elapsed time.Duration
	Cause   error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Step)
	if e.Locale != "" {
		msg = fmt.Sprintf("[%s] %s", e.Locale, msg)
	}
	if e.Target != "" {
		msg += fmt.Sprintf(" for %q", e.Target)
	}
	if e.Elapsed > 0 {
		msg += fmt.Sprintf(" after %s", e.Elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// SkipError signals that a scenario does not apply (product unavailable,
// locale without the feature). It is not a failure.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Reason
}

// Skip returns a skip signal with a formatted reason.
func Skip(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether err carries a skip signal.
func IsSkip(err error) bool {
	var s *SkipError
	return errors.As(err, &s)
}
