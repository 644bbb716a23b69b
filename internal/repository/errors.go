package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrForbidden indicates the operation is not permitted for the caller.
	ErrForbidden = errors.New("repository: forbidden")
	// ErrConflict indicates the record collides with an existing one.
	ErrConflict = errors.New("repository: conflict")
)
