package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("invalid input")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrUpstreamDown = errors.New("upstream did not respond")
	ErrUnavailable  = errors.New("dates unavailable")
)
