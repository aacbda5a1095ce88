package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/JaimeStill/verdant/internal/classifier"
	"github.com/JaimeStill/verdant/internal/diagnoses"
	"github.com/JaimeStill/verdant/internal/recommendations"
)

var (
	ErrNoImages          = errors.New("no image files in upload")
	ErrInvalidImage      = errors.New("image could not be decoded")
	ErrInvalidCropType   = errors.New("unsupported crop type")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrPersistFailed     = errors.New("saving diagnosis failed")
	ErrFileTooLarge      = errors.New("upload exceeds maximum size")
)

// MapHTTPStatus maps pipeline and stage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrPersistFailed):
		return http.StatusInternalServerError
	case errors.Is(err, ErrNoImages),
		errors.Is(err, ErrInvalidImage),
		errors.Is(err, ErrInvalidCropType),
		errors.Is(err, diagnoses.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, classifier.ErrModelLoad), errors.Is(err, classifier.ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, classifier.ErrClassifyFailed),
		errors.Is(err, classifier.ErrNoPredictions),
		errors.Is(err, recommendations.ErrGenerateFailed),
		errors.Is(err, recommendations.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
