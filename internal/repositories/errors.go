package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness
	// constraint or a guarded status transition.
	ErrConflict = errors.New("record conflict")
	// ErrRateLimited indicates the daily quota for an identifier is exhausted.
	ErrRateLimited = errors.New("rate limit exceeded")
)
