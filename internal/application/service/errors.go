package service

import "errors"

var (
	// ErrNotFound is returned when no request exists for the given id
	ErrNotFound = errors.New("request not found")

	// ErrConcurrentModification is returned when another actor transitioned
	// the request between load and write. The caller should re-fetch before
	// deciding whether to retry.
	ErrConcurrentModification = errors.New("request was modified concurrently")

	// ErrStoreUnavailable is returned when the request store fails during
	// load or write. Retryable.
	ErrStoreUnavailable = errors.New("request store unavailable")
)
