package repository

import "errors"

// Sentinel errors returned by transactional enrollment operations. They signal
// that a commit-time guard rejected the mutation; the service layer maps them
// to reason codes.
var (
	// ErrSeatUnavailable means the guarded seat increment matched no row:
	// the class was full or no longer open when the transaction committed.
	ErrSeatUnavailable = errors.New("no seat available")
	// ErrEnrollmentExists means an enrollment row already exists for the
	// (student, class) pair.
	ErrEnrollmentExists = errors.New("enrollment already exists")
	// ErrNotRegistered means the enrollment was not in REGISTERED state.
	ErrNotRegistered = errors.New("enrollment not registered")
	// ErrNotCancelled means the enrollment was not in CANCELLED state.
	ErrNotCancelled = errors.New("enrollment not cancelled")
)
