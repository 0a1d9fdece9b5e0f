package service

import "errors"

// Sentinel errors surfaced to the API layer.
var (
	// ErrInvalidInput indicates a mutation request with missing fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncRunning indicates a full resync was requested while one is
	// already in flight. Retryable; nothing was mutated.
	ErrSyncRunning = errors.New("sync already running")
)
