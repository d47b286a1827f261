package models

import (
	"errors"
)

// Error taxonomy. Every failure in the engine is recoverable by the caller;
// nothing here is fatal to the process.
var (
	// ErrNotFound unknown sensor, incident, contact or check id
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition e.g. resolving an already-resolved incident
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrValidation malformed input rejected before mutating state
	ErrValidation = errors.New("validation failed")
)
