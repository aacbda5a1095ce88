package routes

import (
	"net/http"

	"github.com/JaimeStill/verdant/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. OpenAPI, when set,
// is published in the service document under the route's full path.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}
