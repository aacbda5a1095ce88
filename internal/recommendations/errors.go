package recommendations

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrGenerateFailed  = errors.New("recommendation generation failed")
	ErrInvalidResponse = errors.New("invalid recommendation response")
)

// MapHTTPStatus maps a recommendation error to an HTTP status code.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrGenerateFailed), errors.Is(err, ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
