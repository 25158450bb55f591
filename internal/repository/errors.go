package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")
)
