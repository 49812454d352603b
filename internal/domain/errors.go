package domain

import "errors"

// Error taxonomy for the blocking core. Callers discriminate with errors.Is;
// every condition a user can hit maps to exactly one of these sentinels.
var (
	// ErrUnauthorized means the platform permission grant is missing, so a
	// block attempt was refused. Unblocking never requires authorization.
	ErrUnauthorized = errors.New("blocking permission not granted")

	// ErrWrongTag means a scanned payload did not match the tag phrase.
	// No state changes on a wrong tag.
	ErrWrongTag = errors.New("not a recognized tag")

	// ErrScanFailed and ErrWriteFailed are hardware/platform I/O failures
	// from the tag reader. No state changes on either.
	ErrScanFailed  = errors.New("tag scan failed")
	ErrWriteFailed = errors.New("tag write failed")

	// ErrShieldApply means the platform refused to apply or clear the
	// shield. The toggle intent is still recorded; the caller may retry
	// the apply step with the same state.
	ErrShieldApply = errors.New("failed to apply shield")

	// Profile store contract violations. The operation is rejected with no
	// partial mutation.
	ErrNotFound     = errors.New("profile not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrLastProfile  = errors.New("cannot delete the last remaining profile")

	// ErrInvalidState means a session commit was requested with no active
	// session. Correct callers never trigger this.
	ErrInvalidState = errors.New("no active session")
)
