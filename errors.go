package harvest

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("harvest: no store configured")
	ErrStoreClosed = errors.New("harvest: store closed")

	// Not found errors.
	ErrRunNotFound = errors.New("harvest: collection run not found")

	// Conflict errors.
	ErrRunAlreadyExists = errors.New("harvest: collection run already exists")

	// Validation errors.
	ErrValidation = errors.New("harvest: invalid request")

	// Authorization errors.
	ErrForbidden = errors.New("harvest: caller may not access this run")

	// State errors.
	ErrInvalidTransition = errors.New("harvest: invalid state transition")
	ErrNotReady          = errors.New("harvest: results not ready")
	ErrAlreadyTerminal   = errors.New("harvest: run already reached a terminal state")

	// Quota errors.
	ErrQuotaExceeded = errors.New("harvest: owner quota exceeded")
)
