package utils

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by every handler. Components wrap these with
// fmt.Errorf("...: %w", ErrX) and the HTTP edge maps them with StatusOf.
var (
	ErrUnauthenticated = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrUpstream        = errors.New("upstream failure")
)

var statusByErr = []struct {
	err    error
	status int
}{
	{ErrUnauthenticated, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotFound, http.StatusNotFound},
	{ErrConflict, http.StatusConflict},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrTooManyRequests, http.StatusTooManyRequests},
}

// StatusOf returns the HTTP status for err. Anything outside the taxonomy,
// ErrUpstream included, is a 500.
func StatusOf(err error) int {
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
