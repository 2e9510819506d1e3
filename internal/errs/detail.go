package errs

import (
	"fmt"
	"math"
)

// SequenceError reports the only punch kind accepted next.
type SequenceError struct {
	Expected string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("next punch must be %s", e.Expected)
}

func (e *SequenceError) Unwrap() error { return ErrUnexpectedEventKind }

// GeofenceError carries the measured distance and the configured radius, both in meters.
type GeofenceError struct {
	DistanceM float64
	RadiusM   int
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("punch outside the allowed site: distance ~%dm, allowed radius %dm",
		int64(math.Round(e.DistanceM)), e.RadiusM)
}

func (e *GeofenceError) Unwrap() error { return ErrGeofenceViolation }

// WindowError names the configured correction window.
type WindowError struct {
	Days int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("outside correction window (configured at %d days)", e.Days)
}

func (e *WindowError) Unwrap() error { return ErrOutsideCorrectionWindow }

// InputError describes malformed input in caller-facing words.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func (e *InputError) Unwrap() error { return ErrValidation }

// Invalid builds an *InputError.
func Invalid(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}
