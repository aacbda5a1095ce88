package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/verdant/pkg/envvar"
)

// PipelineConfig bounds each analysis stage and names the detail route
// returned after a successful run. MaxImagePixels caps the decoded size of
// the analyzed upload.
type PipelineConfig struct {
	ClassifyTimeout string `toml:"classify_timeout"`
	GenerateTimeout string `toml:"generate_timeout"`
	PersistTimeout  string `toml:"persist_timeout"`
	DetailRoute     string `toml:"detail_route"`
	MaxImagePixels  int    `toml:"max_image_pixels"`
}

// ClassifyTimeoutDuration returns ClassifyTimeout as a time.Duration.
func (c *PipelineConfig) ClassifyTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ClassifyTimeout)
	return d
}

// GenerateTimeoutDuration returns GenerateTimeout as a time.Duration.
func (c *PipelineConfig) GenerateTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.GenerateTimeout)
	return d
}

// PersistTimeoutDuration returns PersistTimeout as a time.Duration.
func (c *PipelineConfig) PersistTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PersistTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.ClassifyTimeout != "" {
		c.ClassifyTimeout = overlay.ClassifyTimeout
	}
	if overlay.GenerateTimeout != "" {
		c.GenerateTimeout = overlay.GenerateTimeout
	}
	if overlay.PersistTimeout != "" {
		c.PersistTimeout = overlay.PersistTimeout
	}
	if overlay.DetailRoute != "" {
		c.DetailRoute = overlay.DetailRoute
	}
	if overlay.MaxImagePixels != 0 {
		c.MaxImagePixels = overlay.MaxImagePixels
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.ClassifyTimeout == "" {
		c.ClassifyTimeout = "30s"
	}
	if c.GenerateTimeout == "" {
		c.GenerateTimeout = "30s"
	}
	if c.PersistTimeout == "" {
		c.PersistTimeout = "10s"
	}
	if c.DetailRoute == "" {
		c.DetailRoute = "/dashboard/analysis/{id}"
	}
	if c.MaxImagePixels == 0 {
		c.MaxImagePixels = 40_000_000
	}
}

func (c *PipelineConfig) loadEnv() {
	envvar.String(&c.ClassifyTimeout, "VERDANT_PIPELINE_CLASSIFY_TIMEOUT")
	envvar.String(&c.GenerateTimeout, "VERDANT_PIPELINE_GENERATE_TIMEOUT")
	envvar.String(&c.PersistTimeout, "VERDANT_PIPELINE_PERSIST_TIMEOUT")
	envvar.String(&c.DetailRoute, "VERDANT_PIPELINE_DETAIL_ROUTE")
	envvar.Int(&c.MaxImagePixels, "VERDANT_PIPELINE_MAX_IMAGE_PIXELS")
}

func (c *PipelineConfig) validate() error {
	for name, v := range map[string]string{
		"classify_timeout": c.ClassifyTimeout,
		"generate_timeout": c.GenerateTimeout,
		"persist_timeout":  c.PersistTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("max_image_pixels must be positive")
	}
	if !strings.Contains(c.DetailRoute, "{id}") {
		return fmt.Errorf("detail_route %q missing {id}", c.DetailRoute)
	}
	return nil
}
