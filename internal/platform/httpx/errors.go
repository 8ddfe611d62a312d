// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
)

// RespondError maps domain errors to HTTP responses using RFC7807. Errors
// exposing SafeMessage use it as the detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", detail(err))
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", detail(err))
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", detail(err))
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", detail(err))
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", detail(err))
	case errors.Is(err, ErrUpstream):
		Problem(w, http.StatusBadGateway, "Upstream Failure", detail(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func detail(err error) string {
	var safe interface{ SafeMessage() string }
	if errors.As(err, &safe) {
		return safe.SafeMessage()
	}
	return err.Error()
}
