package core

import "github.com/pkg/errors"

// Caller-input errors. None of them are retryable: fix the batch and call again.
var (
	ErrInvalidJob           = errors.New("invalid job")
	ErrInvalidResource      = errors.New("invalid resource")
	ErrNoResourcesAvailable = errors.New("no resources available")

	// ErrUnknownResource and ErrUnknownJob are returned when an id is looked up
	// in a tracker or binder that was never told about it.
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnknownJob      = errors.New("unknown job")
)
