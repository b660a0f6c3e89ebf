package contract

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidIdentifier = errors.New("invalid vehicle identifier")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrSessionNotFound   = errors.New("session not found")
	ErrConfiguration     = errors.New("configuration error")
	ErrUnexpected        = errors.New("unexpected failure while querying providers")
)
