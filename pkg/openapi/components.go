package openapi

import (
	"maps"
	"net/http"
)

var errorBody = &Schema{
	Type:     "object",
	Required: []string{"error"},
	Properties: map[string]*Schema{
		"error": {Type: "string", Description: "Error message"},
	},
}

// NewComponents returns the shared schemas plus one error response per
// status the API emits.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"Error": errorBody,
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 12},
					"search":    {Type: "string", Description: "Free-text search"},
					"sort":      {Type: "string", Description: "Comma-separated fields, - prefix for descending", Example: "-created_at"},
				},
			},
		},
		Responses: make(map[string]*Response),
	}

	for name, status := range errorResponses {
		c.Responses[name] = &Response{
			Description: http.StatusText(status),
			Content: map[string]*MediaType{
				"application/json": {Schema: SchemaRef("Error")},
			},
		}
	}
	return c
}

var errorResponses = map[string]int{
	"BadRequest":         http.StatusBadRequest,
	"Unauthorized":       http.StatusUnauthorized,
	"NotFound":           http.StatusNotFound,
	"Conflict":           http.StatusConflict,
	"BadGateway":         http.StatusBadGateway,
	"ServiceUnavailable": http.StatusServiceUnavailable,
	"GatewayTimeout":     http.StatusGatewayTimeout,
}

// AddSchemas merges schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}
