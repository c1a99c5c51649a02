package household

import "errors"

// Error kinds returned by the membership service. Callers check these with
// errors.Is; the HTTP layer maps each kind to a status code. Stores return
// plain wrapped errors, which surface here as ErrUnavailable or pass
// through untouched when they already carry a kind.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("invalid input")
	ErrUnavailable     = errors.New("store unavailable")
)
