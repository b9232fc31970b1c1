package store

import "errors"

var (
	// ErrNotFound is returned when a post or keyword id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKeyword is returned when a keyword already exists, ignoring case.
	ErrDuplicateKeyword = errors.New("keyword already exists")
)
