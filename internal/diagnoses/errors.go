package diagnoses

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verdant/pkg/storage"
)

var (
	ErrNotFound  = errors.New("diagnosis not found")
	ErrDuplicate = errors.New("diagnosis already exists")
	ErrInvalid   = errors.New("invalid diagnosis")
	ErrNoImage   = errors.New("diagnosis has no stored image")
)

// MapHTTPStatus maps diagnosis domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoImage), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
