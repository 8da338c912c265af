package storage

import "errors"

// Storage errors for ledger record stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to create a record at an
	// address that is already occupied. Record slots are created at most once.
	ErrDuplicateKey = errors.New("duplicate key: record address already occupied")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
