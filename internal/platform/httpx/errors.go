// Package httpx provides JSON and RFC 7807 response helpers.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors understood by RespondError.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps err onto a problem response. Unknown errors become a 500
// without leaking the underlying message.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, r, http.StatusUnauthorized, err.Error())
	default:
		Problem(w, r, http.StatusInternalServerError, "")
	}
}
