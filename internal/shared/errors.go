package shared

import "errors"

// Lookups scoped to an owner return ErrNotFound for rows of other owners,
// so a guessed id never reveals that the row exists.
var ErrNotFound = errors.New("not found")

// ErrUnauthenticated is returned by OwnerID for anonymous requests.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrCSRFTokenMissing  = errors.New("csrf: token missing")
	ErrCSRFTokenMismatch = errors.New("csrf: token mismatch")
)
