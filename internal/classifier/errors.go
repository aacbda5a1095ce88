package classifier

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrModelLoad      = errors.New("model load failed")
	ErrModelNotLoaded = errors.New("model not loaded")
	ErrClassifyFailed = errors.New("classification failed")
	ErrNoPredictions  = errors.New("model returned no predictions")
)

// MapHTTPStatus maps a classifier error to an HTTP status code.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrModelLoad), errors.Is(err, ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrClassifyFailed), errors.Is(err, ErrNoPredictions):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
