// Package engineerr carries the engine's fatal-error type. Recoverable
// conditions (DomainMiss, OutOfBounds) are never represented as errors; they
// are plain zero-value/bool returns at the call site, per SPEC_FULL.md §7.
package engineerr

import "fmt"

// ProgrammerError marks a condition spec.md §7 classifies as fatal: a
// contract violation that can only be caused by a bug in the calling code,
// never by data. Call Raise to abort with one; it is never returned as a
// value and never recovered in normal operation.
type ProgrammerError struct {
	msg string
}

func (e *ProgrammerError) Error() string {
	return e.msg
}

// Raise panics with a ProgrammerError built from the given message. Used for
// duplicate registrations, invariant violations, and other conditions the
// spec requires to abort the process rather than propagate.
func Raise(format string, args ...any) {
	panic(&ProgrammerError{msg: fmt.Sprintf(format, args...)})
}
