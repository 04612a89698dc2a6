package domain

import "errors"

// Sentinel errors shared across the domain. Services return these (possibly
// wrapped) and the delivery layer maps them to HTTP status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
