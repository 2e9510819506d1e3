// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Storage and generic sentinels.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates a missing or invalid bearer credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller without the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates a temporary lock due to repeated failures.
	ErrRateLimited = errors.New("too many attempts, try again later")

	// ErrValidation indicates malformed input not covered by a narrower sentinel.
	ErrValidation = errors.New("validation")
)

// Input validation.
var (
	ErrInvalidTimeFormat = errors.New("invalid time, use HH:MM")
	ErrInvalidDate       = errors.New("invalid date, use YYYY-MM-DD")
	ErrInvalidCursor     = errors.New("invalid cursor")
	ErrInvalidAction     = errors.New("invalid audit action")
	ErrInvalidKind       = errors.New("invalid punch kind")
	ErrInvalidReason     = errors.New("reason must be between 3 and 500 characters")
)

// Punch sequencing.
var (
	// ErrUnexpectedEventKind is returned when the supplied kind is not the next legal one.
	ErrUnexpectedEventKind = errors.New("unexpected punch kind")

	// ErrDayAlreadyClosed is returned when saida was already recorded today.
	ErrDayAlreadyClosed = errors.New("saida already recorded today, ask an administrator for corrections")

	// ErrSequenceExhausted is the auto-detect flavour of ErrDayAlreadyClosed.
	ErrSequenceExhausted = errors.New("no punch left for today, ask an administrator for corrections")

	// ErrTooFrequent is returned when punches are closer than the debounce interval.
	ErrTooFrequent = errors.New("wait 15 seconds before punching again")

	// ErrRoleNotPermitted is returned when an administrator tries to act as an employee.
	ErrRoleNotPermitted = errors.New("administrators do not record punches")

	// ErrWorkdayRejected is returned when blocking workday validation fails.
	ErrWorkdayRejected = errors.New("break requires exactly 4 punches (entrada, break start, break end, saida)")
)

// Location and correction bounds.
var (
	ErrGeofenceViolation       = errors.New("punch outside the allowed site")
	ErrOutsideCorrectionWindow = errors.New("outside correction window")
)

// Authentication.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrPasswordLoginDisabled = errors.New("password login disabled for this employee")
	ErrDeviceNotRegistered   = errors.New("device not registered")
	ErrDeviceLoginDisabled   = errors.New("device login disabled for this employee")
	ErrPairingCodeInvalid    = errors.New("pairing code invalid or expired")
)
