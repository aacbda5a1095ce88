package config

import (
	"fmt"

	"github.com/JaimeStill/verdant/pkg/envvar"
	"github.com/JaimeStill/verdant/pkg/formatting"
	"github.com/JaimeStill/verdant/pkg/middleware"
	"github.com/JaimeStill/verdant/pkg/openapi"
	"github.com/JaimeStill/verdant/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "VERDANT_CORS_ENABLED",
	Origins:          "VERDANT_CORS_ORIGINS",
	AllowedMethods:   "VERDANT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "VERDANT_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "VERDANT_CORS_EXPOSED_HEADERS",
	AllowCredentials: "VERDANT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "VERDANT_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "VERDANT_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "VERDANT_PAGINATION_MAX_PAGE_SIZE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "VERDANT_OPENAPI_TITLE",
	Description: "VERDANT_OPENAPI_DESCRIPTION",
	ServerURL:   "VERDANT_OPENAPI_SERVER_URL",
}

// APIConfig holds API routing, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 20 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "20MB"
	}
}

func (c *APIConfig) loadEnv() {
	envvar.String(&c.BasePath, "VERDANT_API_BASE_PATH")
	envvar.String(&c.MaxUploadSize, "VERDANT_API_MAX_UPLOAD_SIZE")
}
