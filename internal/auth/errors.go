package auth

import "errors"

// Authentication and authorization outcomes. Callers outside this package only
// ever see these collapsed into a generic 401 or 403; the distinctions exist
// for logging and metrics.
var (
	ErrMissingToken       = errors.New("auth: missing token")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrExpiredToken       = errors.New("auth: token expired")
	ErrWrongPrincipalType = errors.New("auth: wrong principal type")
	ErrPrincipalInvalid   = errors.New("auth: principal not found or inactive")
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
	ErrForbidden          = errors.New("auth: forbidden")
)
